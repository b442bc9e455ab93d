// Package extract turns binary catalog documents into plain text using the
// poppler pdftotext tool.
package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// DefaultCommand is the extraction tool looked up on PATH.
const DefaultCommand = "pdftotext"

// DefaultTimeout bounds a single extraction.
const DefaultTimeout = 60 * time.Second

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler (brew install poppler / apt install poppler-utils)")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, pkgerrors.Wrap(err, stderr.String())
	}
	return out, err
}

// PDFToText extracts text by writing the document to a temporary file and
// running pdftotext on it.
type PDFToText struct {
	runner  CommandRunner
	command string
	timeout time.Duration
}

// Option configures a PDFToText.
type Option func(*PDFToText)

// WithCommand overrides the pdftotext binary.
func WithCommand(command string) Option {
	return func(p *PDFToText) {
		if command != "" {
			p.command = command
		}
	}
}

// WithTimeout overrides the per-extraction timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *PDFToText) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New returns an extractor backed by the system pdftotext.
func New(opts ...Option) *PDFToText {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner returns an extractor using runner to execute pdftotext.
func NewWithRunner(runner CommandRunner, opts ...Option) *PDFToText {
	p := &PDFToText{runner: runner, command: DefaultCommand, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckAvailable reports whether the configured command is on PATH.
func (p *PDFToText) CheckAvailable() error {
	if _, err := exec.LookPath(p.command); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// Extract implements catalog.Extractor.
func (p *PDFToText) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}

	tmp, err := os.CreateTemp("", "catalog-*.pdf")
	if err != nil {
		return "", pkgerrors.Wrap(err, "create temp document")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", pkgerrors.Wrap(err, "write temp document")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "close temp document")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.runner.Run(ctx, p.command, "-enc", "UTF-8", "-layout", tmp.Name(), "-")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", ErrPDFToolNotFound
		}
		return "", pkgerrors.Wrap(err, "pdftotext")
	}
	// pdftotext separates pages with form feeds.
	return string(bytes.ReplaceAll(out, []byte("\f"), []byte("\n\n"))), nil
}
