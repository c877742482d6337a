package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"docvoice/internal/model"
)

const (
	contactPromptText  = "Happy to prepare a detailed report. Please share your phone number (10 to 15 digits) so we can follow up."
	contactInvalidText = "That does not look like a valid phone number. Please enter a number with 10 to 15 digits."
	reportFailureText  = "Sorry, the report could not be prepared right now. Please try again later."

	// Returned to the live tool when retrieval finds nothing usable.
	noMatchesSentinel = "no relevant documents found"
)

var (
	ErrEmptyMessage      = errors.New("message text is empty")
	ErrReportUnavailable = errors.New("report capture is not available for this turn")
)

type chatMode int

const (
	modeNormal chatMode = iota
	modeAwaitingContact
)

// sessionState tracks the lead-capture dialogue machine for one session.
// lastUserQuery feeds the report topic; lastModelText feeds the lead context
// snapshot. offered enforces one capture offer per model turn.
type sessionState struct {
	mode          chatMode
	lastUserQuery string
	lastModelText string
	lastFailed    bool
	offered       bool
}

type chunkLister interface {
	ListAll() ([]model.Chunk, error)
}

type messageReader interface {
	ListRecentBySessionID(sessionID string, limit int) ([]model.Message, error)
}

type historyStore interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type queuePublisher interface {
	Publish(ctx context.Context, payload any) error
}

type settingsProvider interface {
	Assistant(ctx context.Context) (name string, policy string)
}

// RetrievalParams are the per-flow topK values.
type RetrievalParams struct {
	TopK       int
	ReportTopK int
	ToolTopK   int
}

// ChatService runs conversation turns: lead-capture interception first, then
// the default retrieval-augmented path. Messages are persisted through the
// async queue; history reads go through the cache-aside layer.
type ChatService struct {
	embedSvc  *EmbeddingService
	answerSvc *AnswerService
	leadSvc   *LeadService
	chunks    chunkLister
	messages  messageReader
	history   historyStore
	publisher queuePublisher
	settings  settingsProvider
	params    RetrievalParams

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewChatService(
	embedSvc *EmbeddingService,
	answerSvc *AnswerService,
	leadSvc *LeadService,
	chunks chunkLister,
	messages messageReader,
	history historyStore,
	publisher queuePublisher,
	settings settingsProvider,
	params RetrievalParams,
) *ChatService {
	if params.TopK <= 0 {
		params.TopK = 5
	}
	if params.ReportTopK <= 0 {
		params.ReportTopK = 8
	}
	if params.ToolTopK <= 0 {
		params.ToolTopK = 3
	}
	return &ChatService{
		embedSvc:  embedSvc,
		answerSvc: answerSvc,
		leadSvc:   leadSvc,
		chunks:    chunks,
		messages:  messages,
		history:   history,
		publisher: publisher,
		settings:  settings,
		params:    params,
		sessions:  make(map[string]*sessionState),
	}
}

// Turn handles one user text submission. The lead-capture branch is checked
// before anything else; it is the only diversion from the default RAG path.
func (s *ChatService) Turn(ctx context.Context, sessionID, text string, fromVoice bool) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if sessionID == "" || text == "" {
		return nil, ErrEmptyMessage
	}

	st := s.state(sessionID)
	s.mu.Lock()
	awaiting := st.mode == modeAwaitingContact
	s.mu.Unlock()

	if awaiting {
		return s.contactTurn(ctx, sessionID, st, text)
	}
	return s.normalTurn(ctx, sessionID, st, text, fromVoice)
}

func (s *ChatService) normalTurn(ctx context.Context, sessionID string, st *sessionState, text string, fromVoice bool) (*model.Message, error) {
	history, err := s.History(ctx, sessionID)
	if err != nil {
		log.Printf("load history for %s failed: %v", sessionID, err)
	}

	chunks := s.retrieve(ctx, text, s.params.TopK)
	name, policy := s.settings.Assistant(ctx)

	res := s.answerSvc.Answer(ctx, AnswerInput{
		Query:         text,
		History:       history,
		Chunks:        chunks,
		AssistantName: name,
		SystemPolicy:  policy,
	})

	userMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   text,
		FromVoice: fromVoice,
		CreatedAt: time.Now(),
	}
	modelMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleModel,
		Content:   res.Text,
		Language:  res.Language,
		CreatedAt: time.Now(),
	}
	modelMsg.SetCitations(res.Citations)
	s.persist(ctx, sessionID, userMsg, modelMsg)

	s.mu.Lock()
	st.lastUserQuery = text
	st.lastModelText = res.Text
	st.lastFailed = res.Language == answerFailureLanguage
	st.offered = false
	s.mu.Unlock()

	return modelMsg, nil
}

// RequestReport moves the session into contact collection. Allowed at most
// once per model turn, and never right after a failed turn.
func (s *ChatService) RequestReport(ctx context.Context, sessionID string) (*model.Message, error) {
	st := s.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.mode != modeNormal || st.offered || st.lastFailed || st.lastModelText == "" {
		return nil, ErrReportUnavailable
	}
	st.mode = modeAwaitingContact
	st.offered = true

	return &model.Message{
		SessionID: sessionID,
		Role:      model.RoleModel,
		Content:   contactPromptText,
		CreatedAt: time.Now(),
	}, nil
}

func (s *ChatService) contactTurn(ctx context.Context, sessionID string, st *sessionState, text string) (*model.Message, error) {
	s.mu.Lock()
	contextText := st.lastModelText
	topic := st.lastUserQuery
	s.mu.Unlock()

	_, err := s.leadSvc.Capture(text, contextText)
	if errors.Is(err, ErrInvalidContact) {
		// Stay in contact collection; the attempt is not a conversation
		// message and nothing is recorded.
		return &model.Message{
			SessionID: sessionID,
			Role:      model.RoleModel,
			Content:   contactInvalidText,
			CreatedAt: time.Now(),
		}, nil
	}

	s.mu.Lock()
	st.mode = modeNormal
	s.mu.Unlock()

	if err != nil {
		log.Printf("lead capture for %s failed: %v", sessionID, err)
		return s.reportFailureMessage(ctx, sessionID), nil
	}

	userMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}

	chunks := s.retrieve(ctx, topic, s.params.ReportTopK)
	name, policy := s.settings.Assistant(ctx)
	report, err := s.answerSvc.Report(ctx, AnswerInput{
		Query:         topic,
		Chunks:        chunks,
		AssistantName: name,
		SystemPolicy:  policy,
	})
	if err != nil {
		log.Printf("report for %s failed: %v", sessionID, err)
		s.persist(ctx, sessionID, userMsg)
		return s.reportFailureMessage(ctx, sessionID), nil
	}

	modelMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleModel,
		Content:   report.Text,
		Language:  report.Language,
		ShareText: report.ShareText,
		CreatedAt: time.Now(),
	}
	modelMsg.SetCitations(report.Citations)
	s.persist(ctx, sessionID, userMsg, modelMsg)
	return modelMsg, nil
}

func (s *ChatService) reportFailureMessage(ctx context.Context, sessionID string) *model.Message {
	msg := &model.Message{
		SessionID: sessionID,
		Role:      model.RoleModel,
		Content:   reportFailureText,
		CreatedAt: time.Now(),
	}
	s.persist(ctx, sessionID, msg)
	return msg
}

// SearchKnowledge runs the retrieval pipeline for the live voice tool and
// returns concatenated chunk texts, or the no-match sentinel.
func (s *ChatService) SearchKnowledge(ctx context.Context, query string) (string, error) {
	chunks := s.retrieve(ctx, query, s.params.ToolTopK)
	if len(chunks) == 0 {
		return noMatchesSentinel, nil
	}
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}
	return strings.Join(texts, "\n\n"), nil
}

// History reads session history cache-aside. While queued writes are still
// in flight (dirty marker set), reads bypass the cache without refilling it.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	dirty, err := s.history.IsDirty(ctx, sessionID)
	if err != nil {
		log.Printf("history dirty check failed: %v", err)
	}
	if !dirty {
		if cached, ok, err := s.history.GetHistory(ctx, sessionID); err == nil && ok {
			return cached, nil
		} else if err != nil {
			log.Printf("history cache read failed: %v", err)
		}
	}

	messages, err := s.messages.ListRecentBySessionID(sessionID, historyWindow)
	if err != nil {
		return nil, err
	}
	if !dirty {
		if err := s.history.SetHistory(ctx, sessionID, messages); err != nil {
			log.Printf("history cache fill failed: %v", err)
		}
	}
	return messages, nil
}

func (s *ChatService) retrieve(ctx context.Context, query string, topK int) []model.Chunk {
	vec := s.embedSvc.EmbedQuery(ctx, query)
	if vec == nil {
		return nil
	}
	corpus, err := s.chunks.ListAll()
	if err != nil {
		log.Printf("list chunks failed: %v", err)
		return nil
	}
	matches, err := FindBestMatches(vec, corpus, topK)
	if err != nil {
		log.Printf("similarity search failed: %v", err)
		return nil
	}
	return matches
}

func (s *ChatService) persist(ctx context.Context, sessionID string, msgs ...*model.Message) {
	for _, msg := range msgs {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			log.Printf("enqueue message persist failed: %v", err)
		}
	}
	if err := s.history.MarkDirty(ctx, sessionID); err != nil {
		log.Printf("mark history dirty failed: %v", err)
	}
}

func (s *ChatService) state(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}
