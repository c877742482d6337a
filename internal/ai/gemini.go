package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig selects the models used for each call type. EmbeddingDim,
// when set, is requested as the output dimensionality of every embedding.
type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	EmbeddingDim   int
	SpeechModel    string
	LiveModel      string
}

// GeminiClient implements Embedder, Generator, Transcriber, Synthesizer and
// LiveDialer on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var cfg *genai.EmbedContentConfig
	if g.cfg.EmbeddingDim > 0 {
		dim := int32(g.cfg.EmbeddingDim)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}
	res, err := g.client.Models.EmbedContent(ctx, g.cfg.EmbeddingModel, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content failed: %w", err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return res.Embeddings[0].Values, nil
}

// The API has no response-language field and a JSON response schema cannot
// be combined with search grounding, so the model is asked to lead with a
// strippable tag line instead.
const languageTagInstruction = `Begin your reply with a single line "LANG: <tag>" giving the BCP-47 language tag of the language your answer is written in, then write the answer itself on the following lines.`

func (g *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	contents := make([]*genai.Content, 0, len(req.Parts))
	for _, part := range req.Parts {
		role := part.Role
		if role == "" {
			role = genai.RoleUser
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: part.Text}},
		})
	}

	system := languageTagInstruction
	if req.System != "" {
		system = req.System + "\n\n" + languageTagInstruction
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	if req.EnableSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.cfg.ChatModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	language, text := splitLanguageTag(strings.TrimSpace(res.Text()))
	if text == "" {
		return nil, fmt.Errorf("empty generation response")
	}

	return &GenerateResult{
		Text:            text,
		Language:        language,
		SearchCitations: extractSearchCitations(res),
	}, nil
}

// splitLanguageTag peels the leading "LANG: <tag>" line off a reply. Replies
// without the line pass through untouched.
func splitLanguageTag(text string) (language, rest string) {
	const prefix = "LANG:"
	if !strings.HasPrefix(text, prefix) {
		return "", text
	}
	line, remainder, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), strings.TrimSpace(remainder)
}

func extractSearchCitations(res *genai.GenerateContentResponse) []Citation {
	if len(res.Candidates) == 0 || res.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var citations []Citation
	for _, gc := range res.Candidates[0].GroundingMetadata.GroundingChunks {
		if gc == nil || gc.Web == nil {
			continue
		}
		citations = append(citations, Citation{Title: gc.Web.Title, URI: gc.Web.URI})
	}
	return citations
}

const transcribeInstruction = "Transcribe this audio verbatim in its original language. Do not translate. Output only the transcription."

func (g *GeminiClient) Transcribe(ctx context.Context, audioBase64, mimeType string) (string, error) {
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", fmt.Errorf("decode audio payload failed: %w", err)
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
			{Text: transcribeInstruction},
		},
	}}
	res, err := g.client.Models.GenerateContent(ctx, g.cfg.ChatModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(res.Text()), nil
}

func (g *GeminiClient) Synthesize(ctx context.Context, text string) (string, error) {
	contents := genai.Text(text)
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	res, err := g.client.Models.GenerateContent(ctx, g.cfg.SpeechModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("no audio in synthesis response")
}
