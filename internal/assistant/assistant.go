package assistant

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"research-chatter/internal/logging"
)

const (
	MatchConfidence    = 0.9
	FallbackConfidence = 0.3
)

// Reply is a canned answer chosen for one message.
type Reply struct {
	Body       string  `json:"reply"`
	Topic      string  `json:"topic"`
	TopicKey   string  `json:"topicKey"`
	Confidence float64 `json:"confidence"`
}

// Responder produces a reply for a chat message.
type Responder interface {
	Generate(ctx context.Context, text string) (Reply, error)
}

// Select picks the first topic, in knowledge base order, with a tag contained in
// the lower-cased text. Tags are compared as written.
func (kb *KnowledgeBase) Select(text string) Reply {
	msg := cases.Lower(language.Und).String(text)
	for _, t := range kb.Topics {
		for _, tag := range t.Tags {
			if strings.Contains(msg, tag) {
				return Reply{Body: t.Content, Topic: t.Title, TopicKey: t.Key, Confidence: MatchConfidence}
			}
		}
	}
	return Reply{
		Body:       kb.Default.Content,
		Topic:      kb.Default.Title,
		TopicKey:   kb.Default.Key,
		Confidence: FallbackConfidence,
	}
}

// Assistant answers from a knowledge base after a short random pause that
// paces the conversation like a typing indicator.
type Assistant struct {
	kb       *KnowledgeBase
	minDelay time.Duration
	maxDelay time.Duration
	jitter   func(n int64) int64
	logger   *zap.Logger
}

type Option func(*Assistant)

// WithDelay sets the pause range; both zero disables pacing.
func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(a *Assistant) {
		a.minDelay = minDelay
		a.maxDelay = max(maxDelay, minDelay)
	}
}

func WithLogger(l *zap.Logger) Option { return func(a *Assistant) { a.logger = logging.OrNop(l) } }

func New(kb *KnowledgeBase, opts ...Option) *Assistant {
	a := &Assistant{
		kb:       kb,
		minDelay: time.Second,
		maxDelay: 2 * time.Second,
		jitter:   rand.Int64N,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Assistant) KnowledgeBase() *KnowledgeBase { return a.kb }

func (a *Assistant) delay() time.Duration {
	span := int64(a.maxDelay - a.minDelay)
	if span <= 0 {
		return a.minDelay
	}
	return a.minDelay + time.Duration(a.jitter(span+1))
}

// Generate waits for the pacing delay, then selects a reply.
// It returns early with ctx.Err() if the context ends during the pause.
func (a *Assistant) Generate(ctx context.Context, text string) (Reply, error) {
	if d := a.delay(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case <-t.C:
		}
	}
	r := a.kb.Select(text)
	a.logger.Debug("reply selected",
		zap.String("topic", r.TopicKey),
		zap.Float64("confidence", r.Confidence))
	return r, nil
}
