// Package chat runs one conversation turn: classify the message, answer it
// from the catalog or the language model, persist the turn and fire the
// contact notification when asked to.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pooly/internal/catalog"
	"pooly/internal/memory"
	"pooly/internal/nlu"
	"pooly/internal/notify"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultHistoryWindow = 10
	DefaultSearchLimit   = 5
	DefaultNotifyTimeout = 30 * time.Second
)

type Service struct {
	adapter    Adapter
	store      SessionStore
	catalog    CatalogSource
	classifier *nlu.Classifier
	notifier   Notifier

	systemPrompt  string
	historyWindow int
	searchLimit   int
	notifyTimeout time.Duration
	replies       Replies
	now           func() time.Time

	wg sync.WaitGroup
}

type ServiceOption func(*Service)

func WithClassifier(c *nlu.Classifier) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithNotifier enables contact notifications. Without it trigger keywords
// only change the route.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithSystemPrompt(prompt string) ServiceOption {
	return func(s *Service) {
		s.systemPrompt = prompt
	}
}

func WithHistoryWindow(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.historyWindow = n
		}
	}
}

func WithSearchLimit(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

func WithNotifyTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func WithReplies(r Replies) ServiceOption {
	return func(s *Service) {
		s.replies = r
	}
}

func NewService(adapter Adapter, store SessionStore, cat CatalogSource, opts ...ServiceOption) *Service {
	s := &Service{
		adapter:       adapter,
		store:         store,
		catalog:       cat,
		classifier:    nlu.NewClassifier(nil, nil),
		systemPrompt:  DefaultSystemPrompt("", ""),
		historyWindow: DefaultHistoryWindow,
		searchLimit:   DefaultSearchLimit,
		notifyTimeout: DefaultNotifyTimeout,
		replies:       DefaultReplies(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleTurn answers one chat message. The only error it returns is
// ErrMissingInput; every other failure becomes a normal reply.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	if req.Message == "" || req.ClientID == "" {
		return TurnResponse{}, ErrMissingInput
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = memory.NewSessionID()
	}
	userMsg := memory.Message{Role: memory.RoleUser, Content: req.Message, Timestamp: s.now().UTC()}
	route := s.classifier.Classify(req.Message)

	entry := log.WithFields(log.Fields{
		"session": sessionID,
		"client":  req.ClientID,
		"route":   route.Intent.String(),
	})

	var (
		reply    string
		answered = true
	)
	switch route.Intent {
	case nlu.CatalogIntent:
		reply = s.catalogReply(ctx, req.Message)
	default:
		var err error
		reply, err = s.modelReply(ctx, sessionID, userMsg)
		if err != nil {
			entry.WithError(err).Error("chat: language model failed")
			reply = s.replies.UpstreamFailed
			answered = false
		}
	}

	turn := memory.Turn{SessionID: sessionID, ClientID: req.ClientID, Messages: []memory.Message{userMsg}}
	if answered {
		turn.Messages = append(turn.Messages, memory.Message{Role: memory.RoleAssistant, Content: reply, Timestamp: s.now().UTC()})
	}
	// the turn is recorded even when the caller has gone away
	if _, err := s.store.Commit(context.WithoutCancel(ctx), turn); err != nil {
		entry.WithError(err).Error("chat: failed to save session")
	}

	if answered && route.Intent == nlu.ContactTrigger && s.notifier != nil {
		s.notifyAsync(ctx, notify.Notification{
			ClientID:    req.ClientID,
			SessionID:   sessionID,
			Keyword:     route.Trigger,
			UserMessage: req.Message,
			Reply:       reply,
		})
	}

	entry.Debug("chat: turn handled")
	return TurnResponse{Reply: reply, SessionID: sessionID, Route: route}, nil
}

// CatalogText returns the catalog text, resolving it on first use.
func (s *Service) CatalogText(ctx context.Context) (string, bool) {
	return s.catalog.EnsureText(ctx)
}

// SearchCatalog returns up to max snippets for query, or nothing when no
// catalog text is available.
func (s *Service) SearchCatalog(ctx context.Context, query string, max int) []catalog.Snippet {
	text, ok := s.catalog.EnsureText(ctx)
	if !ok {
		return []catalog.Snippet{}
	}
	return catalog.Search(query, text, max)
}

// RegenerateCatalogText re-derives the catalog text from the binary artifact.
func (s *Service) RegenerateCatalogText(ctx context.Context) (catalog.Generated, error) {
	return s.catalog.Regenerate(ctx)
}

// Wait blocks until pending notifications are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) catalogReply(ctx context.Context, message string) string {
	text, ok := s.catalog.EnsureText(ctx)
	if !ok {
		return s.replies.CatalogUnavailable
	}
	results := catalog.Search(message, text, s.searchLimit)
	if len(results) == 0 {
		return s.replies.NoResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, s.replies.ResultsHeader, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s", i+1, r.Text)
	}
	return b.String()
}

func (s *Service) modelReply(ctx context.Context, sessionID string, userMsg memory.Message) (string, error) {
	if s.adapter == nil {
		return "", ErrNoModel
	}
	var history []memory.Message
	if sess := s.store.Load(ctx).Session(sessionID); sess != nil {
		history = append(history, sess.Messages...)
	}
	history = append(history, userMsg)
	if len(history) > s.historyWindow {
		history = history[len(history)-s.historyWindow:]
	}
	return s.adapter.Complete(ctx, s.systemPrompt, history)
}

func (s *Service) notifyAsync(parent context.Context, n notify.Notification) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.WithError(err).WithFields(log.Fields{"client": n.ClientID, "session": n.SessionID}).
				Warn("chat: notification failed")
		}
	}()
}
