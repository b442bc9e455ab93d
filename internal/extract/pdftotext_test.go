package extract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name    string
	args    []string
	content []byte
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	if len(args) >= 2 {
		m.content, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.Equal(t, DefaultCommand, p.command)
	assert.Equal(t, DefaultTimeout, p.timeout)
}

func TestOptions(t *testing.T) {
	p := NewWithRunner(&mockRunner{}, WithCommand("/opt/poppler/pdftotext"), WithTimeout(5*time.Second))
	assert.Equal(t, "/opt/poppler/pdftotext", p.command)
	assert.Equal(t, 5*time.Second, p.timeout)

	p = NewWithRunner(&mockRunner{}, WithCommand(""), WithTimeout(0))
	assert.Equal(t, DefaultCommand, p.command)
	assert.Equal(t, DefaultTimeout, p.timeout)
}

func TestExtract_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Art Wall\fVetrina Wall Bar")}
	p := NewWithRunner(runner)

	text, err := p.Extract(context.Background(), []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
	assert.Equal(t, "Art Wall\n\nVetrina Wall Bar", text)

	assert.Equal(t, DefaultCommand, runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, []byte("%PDF-1.7 fake"), runner.content)
	assert.NoFileExists(t, runner.args[len(runner.args)-2])
}

func TestExtract_EmptyDocument(t *testing.T) {
	_, err := NewWithRunner(&mockRunner{}).Extract(context.Background(), nil)
	assert.Error(t, err)
}

func TestExtract_RunnerError(t *testing.T) {
	p := NewWithRunner(&mockRunner{err: errors.New("Syntax Error: Couldn't find trailer dictionary")})
	_, err := p.Extract(context.Background(), []byte("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailer dictionary")
}

func TestExtract_ToolMissing(t *testing.T) {
	p := NewWithRunner(&mockRunner{err: &exec.Error{Name: "pdftotext", Err: exec.ErrNotFound}})
	_, err := p.Extract(context.Background(), []byte("%PDF"))
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
	assert.Contains(t, ErrPDFToolNotFound.Error(), "apt install poppler-utils")
}
