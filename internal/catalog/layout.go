// Package catalog resolves, caches and searches the product catalog text.
package catalog

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"pooly/internal/fileutil"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTextName is the canonical plain-text artifact written after extraction.
	DefaultTextName = "catalogo.txt"
	// LegacyTextName is read when the canonical artifact is missing.
	LegacyTextName = "espositori-vino.txt"
	// DefaultBinaryName is the binary (PDF) catalog artifact.
	DefaultBinaryName = "catalogo-poolys-mood.pdf"
)

var pdfMagic = []byte("%PDF")

// Layout locates the catalog artifacts on disk.
type Layout struct {
	Dir        string
	TextNames  []string // first entry is the canonical text artifact
	BinaryName string
}

// DefaultLayout returns the artifact layout rooted at dir.
func DefaultLayout(dir string) Layout {
	return Layout{
		Dir:        dir,
		TextNames:  []string{DefaultTextName, LegacyTextName},
		BinaryName: DefaultBinaryName,
	}
}

// TextPath is where extracted text is persisted.
func (l Layout) TextPath() string {
	name := DefaultTextName
	if len(l.TextNames) > 0 && l.TextNames[0] != "" {
		name = l.TextNames[0]
	}
	return filepath.Join(l.Dir, name)
}

// TextCandidates lists the plain-text artifacts in precedence order.
func (l Layout) TextCandidates() []string {
	if len(l.TextNames) == 0 {
		return []string{l.TextPath()}
	}
	out := make([]string, 0, len(l.TextNames))
	for _, n := range l.TextNames {
		if n == "" {
			continue
		}
		out = append(out, filepath.Join(l.Dir, n))
	}
	return out
}

// BinaryPath is the binary catalog artifact.
func (l Layout) BinaryPath() string {
	name := l.BinaryName
	if name == "" {
		name = DefaultBinaryName
	}
	return filepath.Join(l.Dir, name)
}

// Availability reports which catalog artifacts exist.
type Availability struct {
	TextPath   string
	HasText    bool
	BinaryPath string
	HasBinary  bool
}

// Kind is "pdf" when a binary artifact exists, "text" when only text does
// and "not_found" otherwise.
func (a Availability) Kind() string {
	switch {
	case a.HasBinary:
		return "pdf"
	case a.HasText:
		return "text"
	default:
		return "not_found"
	}
}

// Describe inspects the layout without extracting anything. A PDF saved
// under a text name is not reported as text; when no binary artifact exists
// yet it is copied there first.
func (l Layout) Describe() Availability {
	a := Availability{BinaryPath: l.BinaryPath(), HasBinary: fileExists(l.BinaryPath())}
	for _, p := range l.TextCandidates() {
		if !fileExists(p) {
			continue
		}
		if !hasPDFHeader(p) {
			a.TextPath = p
			a.HasText = true
			break
		}
		if !a.HasBinary {
			if err := copyFile(p, a.BinaryPath); err != nil {
				log.WithError(err).Warnf("catalog: %s holds a PDF and could not be relocated", p)
				a.BinaryPath = p
			} else {
				log.Infof("catalog: %s holds a PDF, copied to %s", p, a.BinaryPath)
			}
			a.HasBinary = true
		}
		break
	}
	return a
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

func hasPDFHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(f, head)
	return isPDF(head[:n])
}

func copyFile(from, to string) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(to, data, 0o644)
}
