// Package research wires the record store, the assistant and the exporters into
// the operations the chat panel, the questionnaire and the dashboard perform.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"research-chatter/internal/analytics"
	"research-chatter/internal/assistant"
	"research-chatter/internal/export"
	"research-chatter/internal/history"
	"research-chatter/internal/logging"
	"research-chatter/internal/storage"
)

const (
	// MaxMessageLength matches the chat input counter (n/500).
	MaxMessageLength = 500

	ApologyMessage = "عذراً، حدث خطأ في الاتصال. يرجى المحاولة مرة أخرى."
	SampleQuestion = "كيف يمكنني تحسين التفاعل في محاضراتي الإلكترونية؟"
	sampleTopicKey = "تفاعل"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	ErrInvalidScore   = errors.New("likert score must be between 1 and 5")
)

// App is the research application. All methods are safe for concurrent use;
// chat messages are answered one at a time in arrival order.
type App struct {
	store      *storage.Store
	responder  assistant.Responder
	kb         *assistant.KnowledgeBase
	transcript *history.Manager
	logger     *zap.Logger
	now        func() time.Time

	sendMu sync.Mutex
}

type Option func(*App)

func WithLogger(l *zap.Logger) Option { return func(a *App) { a.logger = logging.OrNop(l) } }

func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

func New(store *storage.Store, responder assistant.Responder, kb *assistant.KnowledgeBase, opts ...Option) *App {
	a := &App{
		store:      store,
		responder:  responder,
		kb:         kb,
		transcript: history.NewManager(),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Exchange is the outcome of one chat message.
type Exchange struct {
	Reply  assistant.Reply
	Record storage.ConversationRecord
	// Failed is set when the assistant errored and the apology was shown instead;
	// nothing is stored in that case.
	Failed bool
}

// SendMessage answers a chat message and stores the exchange.
// Only input errors are returned; assistant failures become an apology.
func (a *App) SendMessage(ctx context.Context, text string) (Exchange, error) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return Exchange{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return Exchange{}, ErrMessageTooLong
	}

	a.sendMu.Lock()
	defer a.sendMu.Unlock()

	session := a.store.SessionID(ctx)
	a.transcript.AppendUser(session, msg)

	reply, err := a.responder.Generate(ctx, msg)
	if err != nil {
		a.logger.Error("error in sendMessage", zap.String("session", session), zap.Error(err))
		a.transcript.AppendBot(session, ApologyMessage)
		return Exchange{Reply: assistant.Reply{Body: ApologyMessage}, Failed: true}, nil
	}

	a.transcript.AppendBot(session, reply.Body)
	rec := a.store.AppendConversation(ctx, msg, reply.Body)
	a.logger.Info("conversation stored",
		zap.Int64("id", rec.ID),
		zap.String("topic", reply.TopicKey),
		zap.Float64("confidence", reply.Confidence))
	return Exchange{Reply: reply, Record: rec}, nil
}

// SubmitSurvey stores a questionnaire. Scores outside the 1..5 scale are rejected,
// mirroring the radio groups of the form.
func (a *App) SubmitSurvey(ctx context.Context, in storage.SurveyInput) (storage.SurveyRecord, error) {
	for code, v := range in.Responses {
		if v < 1 || v > 5 {
			return storage.SurveyRecord{}, fmt.Errorf("%w: %s=%d", ErrInvalidScore, code, v)
		}
	}
	rec := a.store.AppendSurvey(ctx, in)
	a.logger.Info("survey stored",
		zap.Int64("id", rec.ID),
		zap.String("experience", rec.Experience),
		zap.Int("responses", len(rec.Responses)))
	return rec, nil
}

// Transcript returns the visible chat of the current session.
func (a *App) Transcript(ctx context.Context) []history.Message {
	return a.transcript.Get(a.store.SessionID(ctx))
}

// ClearChat empties the visible transcript; stored conversations are kept.
func (a *App) ClearChat(ctx context.Context) {
	a.transcript.Reset(a.store.SessionID(ctx))
}

// SeedSample stores one example conversation when the store holds no records.
// It reports whether anything was added.
func (a *App) SeedSample(ctx context.Context) bool {
	snap := a.store.Snapshot()
	if len(snap.Surveys) > 0 || len(snap.Conversations) > 0 {
		return false
	}
	topic, ok := a.kb.Topic(sampleTopicKey)
	if !ok {
		a.logger.Warn("sample topic missing from knowledge base", zap.String("topic", sampleTopicKey))
		return false
	}
	a.store.AppendConversation(ctx, SampleQuestion, topic.Content)
	return true
}

// Snapshot exposes a copy of the stored records.
func (a *App) Snapshot() storage.State {
	return a.store.Snapshot()
}

// Statistics returns the headline numbers.
func (a *App) Statistics() analytics.Stats {
	return analytics.Statistics(a.store.Snapshot())
}

// Export renders one export document.
func (a *App) Export(kind export.Kind) (export.Document, error) {
	doc, err := export.Build(kind, a.store.Snapshot(), a.now())
	if err != nil {
		a.logger.Error("error exporting data", zap.String("type", string(kind)), zap.Error(err))
		return export.Document{}, err
	}
	return doc, nil
}

// ExportTo renders and writes one export into dir, returning the file path.
func (a *App) ExportTo(dir string, kind export.Kind) (string, error) {
	doc, err := a.Export(kind)
	if err != nil {
		return "", err
	}
	p, err := export.WriteFile(dir, doc)
	if err != nil {
		a.logger.Error("error writing export", zap.String("path", doc.Name), zap.Error(err))
		return "", err
	}
	a.logger.Info("export written", zap.String("type", string(kind)), zap.String("path", p))
	return p, nil
}
