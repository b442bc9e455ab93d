// Package memory persists per-session conversation history in a single JSON
// file.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"pooly/internal/fileutil"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation thread. Messages are append-only and kept in
// chronological order.
type Session struct {
	ID       string    `json:"id"`
	ClientID string    `json:"clientId"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
}

// Memory is the whole persisted mapping from session id to Session.
type Memory struct {
	Sessions map[string]*Session `json:"sessions"`
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{Sessions: make(map[string]*Session)}
}

// Session returns the session with id, or nil.
func (m *Memory) Session(id string) *Session {
	if m == nil || m.Sessions == nil {
		return nil
	}
	return m.Sessions[id]
}

// Ensure returns the session with id, creating it if missing.
func (m *Memory) Ensure(id, clientID string, created time.Time) *Session {
	if m.Sessions == nil {
		m.Sessions = make(map[string]*Session)
	}
	s, ok := m.Sessions[id]
	if !ok {
		s = &Session{ID: id, ClientID: clientID, Messages: []Message{}, Created: created}
		m.Sessions[id] = s
	}
	return s
}

// IDs returns the session ids sorted by creation time.
func (m *Memory) IDs() []string {
	ids := make([]string, 0, len(m.Sessions))
	for id := range m.Sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.Sessions[ids[i]], m.Sessions[ids[j]]
		if a.Created.Equal(b.Created) {
			return ids[i] < ids[j]
		}
		return a.Created.Before(b.Created)
	})
	return ids
}

// NewSessionID returns a fresh unique session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Turn is the set of messages one chat request adds to a session.
type Turn struct {
	SessionID string
	ClientID  string
	Messages  []Message
}

// FileStore keeps the Memory in one JSON file, rewritten whole on every save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store persisting to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the store file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the store file. A missing, unreadable or corrupt file yields an
// empty Memory.
func (s *FileStore) Load(ctx context.Context) *Memory {
	m, err := s.read()
	if err != nil {
		log.WithError(err).WithField("path", s.path).Warn("memory: store unavailable, starting empty")
		return New()
	}
	return m
}

// Save writes the whole Memory, creating the containing directory if needed.
// The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, m *Memory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(m)
}

// Commit appends a turn's messages to its session and saves. Writers are
// serialized and the file is re-read first, so turns on different sessions
// that overlap do not drop each other's updates.
func (s *FileStore) Commit(ctx context.Context, turn Turn) (*Session, error) {
	if turn.SessionID == "" {
		return nil, errors.New("memory: commit without session id")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.Load(ctx)
	created := time.Now().UTC()
	if len(turn.Messages) > 0 {
		created = turn.Messages[0].Timestamp
	}
	sess := m.Ensure(turn.SessionID, turn.ClientID, created)
	sess.Messages = append(sess.Messages, turn.Messages...)

	if err := s.write(m); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *FileStore) read() (*Memory, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var m Memory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}
	if m.Sessions == nil {
		m.Sessions = make(map[string]*Session)
	}
	for id, sess := range m.Sessions {
		if sess == nil {
			delete(m.Sessions, id)
			continue
		}
		if sess.ID == "" {
			sess.ID = id
		}
	}
	return &m, nil
}

func (s *FileStore) write(m *Memory) error {
	if m == nil {
		m = New()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
