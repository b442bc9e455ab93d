package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "memory", "aiMemory.json"))
	m := s.Load(context.Background())
	require.NotNil(t, m)
	assert.Empty(t, m.Sessions)
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiMemory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := NewFileStore(path).Load(context.Background())
	require.NotNil(t, m)
	assert.Empty(t, m.Sessions)
}

func TestLoad_LegacyShapeWithoutIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiMemory.json")
	legacy := `{"sessions":{"abc":{"clientId":"web","messages":[{"role":"user","content":"ciao","timestamp":"2025-10-01T10:00:00.000Z"}],"created":"2025-10-01T10:00:00.000Z"}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	m := NewFileStore(path).Load(context.Background())
	sess := m.Session("abc")
	require.NotNil(t, sess)
	assert.Equal(t, "abc", sess.ID)
	assert.Equal(t, "web", sess.ClientID)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, RoleUser, sess.Messages[0].Role)
}

func TestSave_CreatesDirAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memory", "aiMemory.json")
	s := NewFileStore(path)

	m := New()
	sess := m.Ensure("s1", "client-1", time.Now().UTC())
	sess.Messages = append(sess.Messages, msg(RoleUser, "ciao"), msg(RoleAssistant, "salve"))
	require.NoError(t, s.Save(context.Background(), m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "sessions")

	loaded := s.Load(context.Background())
	got := loaded.Session("s1")
	require.NotNil(t, got)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "ciao", got.Messages[0].Content)
	assert.Equal(t, "salve", got.Messages[1].Content)
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "aiMemory.json", entries[0].Name())
}

func TestCommit_TwoStoresOnOnePathDoNotCollide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiMemory.json")
	serve, repl := NewFileStore(path), NewFileStore(path)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for _, s := range []*FileStore{serve, repl} {
			wg.Add(1)
			go func(s *FileStore) {
				defer wg.Done()
				_, err := s.Commit(context.Background(), Turn{SessionID: NewSessionID(), ClientID: "c", Messages: []Message{msg(RoleUser, "ciao")}})
				errs <- err
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
	assert.NotEmpty(t, serve.Load(context.Background()).Sessions)
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFileStore(filepath.Join(t.TempDir(), "aiMemory.json"))
	assert.ErrorIs(t, s.Save(ctx, New()), context.Canceled)
}

func TestCommit_AppendsInOrder(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "aiMemory.json"))
	ctx := context.Background()

	_, err := s.Commit(ctx, Turn{SessionID: "s1", ClientID: "c", Messages: []Message{msg(RoleUser, "q1"), msg(RoleAssistant, "a1")}})
	require.NoError(t, err)
	sess, err := s.Commit(ctx, Turn{SessionID: "s1", ClientID: "c", Messages: []Message{msg(RoleUser, "q2"), msg(RoleAssistant, "a2")}})
	require.NoError(t, err)

	var contents []string
	for _, m := range sess.Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, contents)
	assert.Equal(t, sess.Messages[0].Timestamp, sess.Created)
}

func TestCommit_RequiresSessionID(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "aiMemory.json"))
	_, err := s.Commit(context.Background(), Turn{ClientID: "c"})
	assert.Error(t, err)
}

func TestCommit_ConcurrentSessionsKeepAllUpdates(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "aiMemory.json"))
	ctx := context.Background()

	const sessions = 10
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			_, err := s.Commit(ctx, Turn{SessionID: id, ClientID: "c", Messages: []Message{msg(RoleUser, id)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m := s.Load(ctx)
	assert.Len(t, m.Sessions, sessions)
}

func TestIDs_SortedByCreation(t *testing.T) {
	m := New()
	base := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	m.Ensure("late", "c", base.Add(time.Hour))
	m.Ensure("early", "c", base)
	assert.Equal(t, []string{"early", "late"}, m.IDs())
}

func TestNewSessionID_Unique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
