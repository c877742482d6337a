package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvoice/internal/ai"
	"docvoice/internal/model"
)

type fakeChunkLister struct {
	chunks []model.Chunk
	err    error
}

func (f *fakeChunkLister) ListAll() ([]model.Chunk, error) {
	return f.chunks, f.err
}

type fakeMessageReader struct {
	messages []model.Message
}

func (f *fakeMessageReader) ListRecentBySessionID(sessionID string, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeHistoryStore struct {
	cached map[string][]model.Message
	dirty  map[string]bool
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{
		cached: make(map[string][]model.Message),
		dirty:  make(map[string]bool),
	}
}

func (f *fakeHistoryStore) GetHistory(_ context.Context, sessionID string) ([]model.Message, bool, error) {
	msgs, ok := f.cached[sessionID]
	return msgs, ok, nil
}

func (f *fakeHistoryStore) SetHistory(_ context.Context, sessionID string, messages []model.Message) error {
	f.cached[sessionID] = messages
	return nil
}

func (f *fakeHistoryStore) MarkDirty(_ context.Context, sessionID string) error {
	f.dirty[sessionID] = true
	return nil
}

func (f *fakeHistoryStore) IsDirty(_ context.Context, sessionID string) (bool, error) {
	return f.dirty[sessionID], nil
}

type fakePublisher struct {
	published []any
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

type fixedSettings struct{}

func (fixedSettings) Assistant(context.Context) (string, string) {
	return "DocVoice", "Be factual."
}

type chatFixture struct {
	svc       *ChatService
	embedder  *fakeEmbedder
	generator *fakeGenerator
	leads     *fakeLeadStore
	publisher *fakePublisher
	history   *fakeHistoryStore
}

func newChatFixture(chunks []model.Chunk) *chatFixture {
	f := &chatFixture{
		embedder:  &fakeEmbedder{vectors: map[string][]float32{}},
		generator: &fakeGenerator{result: &ai.GenerateResult{Text: "an answer"}},
		leads:     &fakeLeadStore{},
		publisher: &fakePublisher{},
		history:   newFakeHistoryStore(),
	}
	f.svc = NewChatService(
		NewEmbeddingService(f.embedder, 100, 0),
		NewAnswerService(f.generator),
		NewLeadService(f.leads),
		&fakeChunkLister{chunks: chunks},
		&fakeMessageReader{},
		f.history,
		f.publisher,
		fixedSettings{},
		RetrievalParams{TopK: 5, ReportTopK: 8, ToolTopK: 3},
	)
	return f
}

func TestNormalTurnRetrievesAndPersists(t *testing.T) {
	chunk := model.Chunk{ID: 1, DocumentTitle: "History of Samastha", Content: "Samastha was established in 1926."}
	chunk.SetEmbedding([]float32{1, 0})
	f := newChatFixture([]model.Chunk{chunk})
	f.embedder.vectors["When was Samastha founded?"] = []float32{0.9, 0.1}
	f.generator.result = &ai.GenerateResult{Text: "It was founded in 1926.", Language: "en"}

	reply, err := f.svc.Turn(context.Background(), "s1", "When was Samastha founded?", false)
	require.NoError(t, err)

	assert.Equal(t, model.RoleModel, reply.Role)
	assert.Equal(t, "It was founded in 1926.", reply.Content)
	assert.Equal(t, "en", reply.Language)
	assert.Contains(t, reply.CitationList(), "History of Samastha")

	// user and model messages both go through the persist queue
	require.Len(t, f.publisher.published, 2)
	userMsg := f.publisher.published[0].(*model.Message)
	assert.Equal(t, model.RoleUser, userMsg.Role)
	modelMsg := f.publisher.published[1].(*model.Message)
	assert.Equal(t, "en", modelMsg.Language)
	assert.True(t, f.history.dirty["s1"])
}

func TestTurnRejectsEmptyInput(t *testing.T) {
	f := newChatFixture(nil)
	_, err := f.svc.Turn(context.Background(), "s1", "   ", false)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestRequestReportOncePerModelTurn(t *testing.T) {
	f := newChatFixture(nil)
	f.embedder.vectors["hello"] = []float32{1, 0}

	_, err := f.svc.RequestReport(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrReportUnavailable, "no model turn yet")

	_, err = f.svc.Turn(context.Background(), "s1", "hello", false)
	require.NoError(t, err)

	prompt, err := f.svc.RequestReport(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, contactPromptText, prompt.Content)

	_, err = f.svc.RequestReport(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrReportUnavailable, "second offer for the same turn")
}

func TestContactTurnInvalidStaysAwaiting(t *testing.T) {
	f := newChatFixture(nil)
	f.embedder.vectors["hello"] = []float32{1, 0}

	_, err := f.svc.Turn(context.Background(), "s1", "hello", false)
	require.NoError(t, err)
	_, err = f.svc.RequestReport(context.Background(), "s1")
	require.NoError(t, err)

	published := len(f.publisher.published)

	reply, err := f.svc.Turn(context.Background(), "s1", "12345", false)
	require.NoError(t, err)
	assert.Equal(t, contactInvalidText, reply.Content)
	assert.Empty(t, f.leads.leads)
	assert.Len(t, f.publisher.published, published, "failed attempt is not a conversation message")

	// still intercepted, so another bad attempt repeats the validation path
	reply, err = f.svc.Turn(context.Background(), "s1", "still not a number", false)
	require.NoError(t, err)
	assert.Equal(t, contactInvalidText, reply.Content)
}

func TestContactTurnSuccessProducesReport(t *testing.T) {
	chunk := model.Chunk{ID: 1, DocumentTitle: "Moon Records", Content: "Moon sighting marks the month."}
	chunk.SetEmbedding([]float32{1, 0})
	f := newChatFixture([]model.Chunk{chunk})
	f.embedder.vectors["tell me about moon sighting"] = []float32{1, 0}
	f.generator.result = &ai.GenerateResult{Text: "**Moon Report**\n* sighting rules"}

	_, err := f.svc.Turn(context.Background(), "s1", "tell me about moon sighting", false)
	require.NoError(t, err)
	_, err = f.svc.RequestReport(context.Background(), "s1")
	require.NoError(t, err)

	reply, err := f.svc.Turn(context.Background(), "s1", "+91 95265 69313", false)
	require.NoError(t, err)

	require.Len(t, f.leads.leads, 1)
	assert.Equal(t, "+91 95265 69313", f.leads.leads[0].PhoneNumber)

	assert.Contains(t, reply.Content, "Moon Report")
	assert.Contains(t, reply.ShareText, "Generated by DocVoice")
	assert.NotContains(t, reply.ShareText, "**")

	// report prompt was built from the query before the contact turn
	assert.Contains(t, f.generator.lastReq.Parts[0].Text, "tell me about moon sighting")

	// back to normal: the next turn takes the default path
	f.embedder.vectors["next question"] = []float32{0, 1}
	next, err := f.svc.Turn(context.Background(), "s1", "next question", false)
	require.NoError(t, err)
	assert.NotEqual(t, contactInvalidText, next.Content)
}

func TestSearchKnowledge(t *testing.T) {
	chunk := model.Chunk{ID: 1, DocumentTitle: "Calendar", Content: "Moon sighting marks the start of the month."}
	chunk.SetEmbedding([]float32{1, 0})
	f := newChatFixture([]model.Chunk{chunk})
	f.embedder.vectors["moon sighting"] = []float32{0.9, 0.1}

	result, err := f.svc.SearchKnowledge(context.Background(), "moon sighting")
	require.NoError(t, err)
	assert.Contains(t, result, "Moon sighting marks the start of the month.")
	assert.NotEqual(t, noMatchesSentinel, result)
}

func TestSearchKnowledgeEmptyCorpus(t *testing.T) {
	f := newChatFixture(nil)
	f.embedder.vectors["anything"] = []float32{1, 0}

	result, err := f.svc.SearchKnowledge(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, noMatchesSentinel, result)
}

func TestHistoryCacheAside(t *testing.T) {
	f := newChatFixture(nil)
	f.svc.messages = &fakeMessageReader{messages: []model.Message{
		{SessionID: "s1", Role: model.RoleUser, Content: "from db"},
	}}

	// miss fills the cache
	history, err := f.svc.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Len(t, f.history.cached["s1"], 1)

	// dirty marker bypasses the cache and suppresses the refill
	f.history.cached["s1"] = nil
	delete(f.history.cached, "s1")
	f.history.dirty["s1"] = true
	history, err = f.svc.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	_, cached := f.history.cached["s1"]
	assert.False(t, cached)
}
