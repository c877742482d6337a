package app

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"docvoice/internal/ai"
	"docvoice/internal/model"
)

const (
	// Sent to the conversation in place of a failed generation; the loop
	// must always receive a message object.
	answerFailureText     = "Sorry, something went wrong while preparing an answer. Please try again."
	answerFailureLanguage = "error"

	historyWindow = 20
)

const reportPromptTemplate = `Write a detailed report on the following topic using the provided context.
Start with a title line, follow with a one-paragraph overview, then list the key points as markdown bullets.

Topic: %s`

// AnswerService assembles grounded prompts and turns model output into
// conversation messages with merged citations.
type AnswerService struct {
	generator ai.Generator
}

func NewAnswerService(generator ai.Generator) *AnswerService {
	return &AnswerService{generator: generator}
}

// AnswerInput is one grounded generation request. Chunks are the retrieved
// context; History is the prior conversation, oldest first.
type AnswerInput struct {
	Query         string
	History       []model.Message
	Chunks        []model.Chunk
	AssistantName string
	SystemPolicy  string
}

// AnswerResult is always populated, even on provider failure.
type AnswerResult struct {
	Text      string
	Language  string
	Citations []string
}

// Answer runs one grounded turn with web search enabled. Citations list the
// retrieved document titles first, then any search-grounding sources the
// model attached.
func (s *AnswerService) Answer(ctx context.Context, input AnswerInput) AnswerResult {
	parts := buildHistoryParts(input.History)
	parts = append(parts, ai.ChatPart{
		Role: model.RoleUser,
		Text: buildGroundedPrompt(input.Query, input.Chunks),
	})

	res, err := s.generator.Generate(ctx, ai.GenerateRequest{
		Parts:        parts,
		System:       buildSystemInstruction(input.AssistantName, input.SystemPolicy),
		EnableSearch: true,
	})
	if err != nil {
		log.Printf("grounded answer failed: %v", err)
		return AnswerResult{Text: answerFailureText, Language: answerFailureLanguage}
	}

	return AnswerResult{
		Text:      res.Text,
		Language:  res.Language,
		Citations: mergeCitations(input.Chunks, res.SearchCitations),
	}
}

// ReportResult carries the rendered report plus its plain-text shareable
// variant.
type ReportResult struct {
	AnswerResult
	ShareText string
}

// Report runs the detailed-report variant of the grounded turn and renders
// the shareable plain-text form.
func (s *AnswerService) Report(ctx context.Context, input AnswerInput) (ReportResult, error) {
	prompt := AnswerInput{
		Query:         fmt.Sprintf(reportPromptTemplate, input.Query),
		Chunks:        input.Chunks,
		AssistantName: input.AssistantName,
		SystemPolicy:  input.SystemPolicy,
	}
	answer := s.Answer(ctx, prompt)
	if answer.Language == answerFailureLanguage {
		return ReportResult{}, fmt.Errorf("report generation failed")
	}

	share := stripMarkdown(answer.Text) + fmt.Sprintf("\n\nGenerated by %s", input.AssistantName)
	return ReportResult{AnswerResult: answer, ShareText: share}, nil
}

func buildSystemInstruction(name, policy string) string {
	return fmt.Sprintf("You are %s, a helpful assistant.\n%s", name, policy)
}

func buildHistoryParts(history []model.Message) []ai.ChatPart {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	parts := make([]ai.ChatPart, 0, len(history)+1)
	for _, msg := range history {
		role := msg.Role
		if role != model.RoleUser {
			role = "model"
		}
		parts = append(parts, ai.ChatPart{Role: role, Text: msg.Content})
	}
	return parts
}

func buildGroundedPrompt(query string, chunks []model.Chunk) string {
	if len(chunks) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString("Context from the knowledge base:\n\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", chunk.DocumentTitle, chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func mergeCitations(chunks []model.Chunk, search []ai.Citation) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.DocumentTitle == "" || seen[chunk.DocumentTitle] {
			continue
		}
		seen[chunk.DocumentTitle] = true
		labels = append(labels, chunk.DocumentTitle)
	}
	for _, c := range search {
		label := c.Title
		if label == "" {
			label = c.URI
		}
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

var markdownMarkerRe = regexp.MustCompile("[*_`#]+")

func stripMarkdown(text string) string {
	return strings.TrimSpace(markdownMarkerRe.ReplaceAllString(text, ""))
}
