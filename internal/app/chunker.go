package app

import (
	"regexp"
	"strings"
)

// Sentence-like units end at terminal punctuation; blank lines are hard
// boundaries so paragraphs never fuse into one unit.
var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	sentenceRe       = regexp.MustCompile(`[^.!?]*[.!?]+["')\]]*\s*|[^.!?]+$`)
)

// SplitChunks splits extracted document text into ordered, non-empty chunks.
// Sentence units are accumulated greedily; when the next unit would push the
// buffer past maxChunkSize characters, the buffer is flushed and the unit
// starts a new chunk. A single unit longer than maxChunkSize becomes its own
// oversized chunk rather than being cut mid-sentence.
func SplitChunks(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []string
	for _, para := range paragraphSplitRe.Split(text, -1) {
		for _, unit := range sentenceRe.FindAllString(para, -1) {
			unit = strings.TrimSpace(unit)
			if unit != "" {
				units = append(units, unit)
			}
		}
	}

	var chunks []string
	var buf strings.Builder
	for _, unit := range units {
		if buf.Len() > 0 && buf.Len()+1+len(unit) > maxChunkSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(unit)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
