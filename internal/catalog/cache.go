package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"unicode/utf8"

	"pooly/internal/fileutil"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSourceNotFound means no binary catalog artifact exists.
	ErrSourceNotFound = errors.New("catalog source not found")
	// ErrExtractionFailed means the extractor could not turn the binary artifact into text.
	ErrExtractionFailed = errors.New("catalog text extraction failed")
)

// Extractor turns a binary catalog document into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// State of a Cache.
type State int

const (
	Empty State = iota
	Populated
)

func (s State) String() string {
	if s == Populated {
		return "populated"
	}
	return "empty"
}

// Generated is the outcome of a forced regeneration.
type Generated struct {
	Path   string `json:"path"`
	Text   string `json:"-"`
	Length int    `json:"length"`
}

// Cache holds the catalog text for the lifetime of the process. It is
// populated lazily on the first EnsureText and only replaced by Regenerate
// or dropped by Invalidate.
type Cache struct {
	layout    Layout
	extractor Extractor

	mu    sync.RWMutex
	text  string
	state State

	group singleflight.Group
}

// NewCache returns an empty cache over layout. extractor may be nil, in which
// case only plain-text artifacts are usable.
func NewCache(layout Layout, extractor Extractor) *Cache {
	return &Cache{layout: layout, extractor: extractor}
}

// Layout returns the artifact layout the cache reads from.
func (c *Cache) Layout() Layout {
	return c.layout
}

// State reports whether the cache has been populated.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// EnsureText returns the catalog text, resolving it on first use. The
// boolean is false when no catalog text is available by any path; failures
// along the way are logged and never returned.
func (c *Cache) EnsureText(ctx context.Context) (string, bool) {
	if text, ok := c.cached(); ok {
		return text, true
	}

	v, _, _ := c.group.Do("ensure", func() (any, error) {
		if text, ok := c.cached(); ok {
			return text, nil
		}
		// shared by every waiter, so one caller canceling must not fail the rest
		text, err := c.resolve(context.WithoutCancel(ctx))
		if err != nil {
			log.WithError(err).Warn("catalog: text unavailable")
			return "", nil
		}
		if text != "" {
			c.set(text)
		}
		return text, nil
	})

	text, _ := v.(string)
	return text, text != ""
}

// Invalidate drops the cached text; the next EnsureText resolves again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = ""
	c.state = Empty
}

// Regenerate re-extracts the binary artifact, cleans the text, and
// overwrites both the persisted text artifact and the cached text.
func (c *Cache) Regenerate(ctx context.Context) (Generated, error) {
	data, err := os.ReadFile(c.layout.BinaryPath())
	if errors.Is(err, fs.ErrNotExist) {
		return Generated{}, ErrSourceNotFound
	}
	if err != nil {
		return Generated{}, pkgerrors.Wrap(err, "read catalog source")
	}

	raw, err := c.extract(ctx, data)
	if err != nil {
		return Generated{}, err
	}
	text := CleanText(NormalizeLineEndings(raw))

	path := c.layout.TextPath()
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return Generated{}, pkgerrors.Wrap(err, "persist catalog text")
	}
	if text == "" {
		c.Invalidate()
		log.WithField("path", path).Warn("catalog: regenerated text is empty")
	} else {
		c.set(text)
	}

	log.WithFields(log.Fields{"path": path, "length": len(text)}).Info("catalog: text regenerated from source")
	return Generated{Path: path, Text: text, Length: utf8.RuneCountInString(text)}, nil
}

func (c *Cache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text, c.state == Populated && c.text != ""
}

func (c *Cache) set(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.state = Populated
}

// resolve reads the first existing text artifact, or extracts and persists
// the binary one. An empty result with a nil error means "no catalog".
func (c *Cache) resolve(ctx context.Context) (string, error) {
	for _, p := range c.layout.TextCandidates() {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("catalog: text artifact %s not found", p)
			continue
		}
		if err != nil {
			return "", pkgerrors.Wrapf(err, "read %s", p)
		}
		if isPDF(data) {
			if err := c.relocateBinary(p, data); err != nil {
				return "", err
			}
			break
		}
		log.Debugf("catalog: loaded text artifact %s", p)
		return string(data), nil
	}

	data, err := os.ReadFile(c.layout.BinaryPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(err, "read catalog source")
	}

	raw, err := c.extract(ctx, data)
	if err != nil {
		return "", err
	}
	text := NormalizeLineEndings(raw)

	path := c.layout.TextPath()
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		log.WithError(err).Warnf("catalog: could not persist extracted text to %s", path)
	} else {
		log.Infof("catalog: extracted text saved to %s", path)
	}
	return text, nil
}

// relocateBinary handles a PDF saved under a text name by copying it to the
// binary artifact path.
func (c *Cache) relocateBinary(from string, data []byte) error {
	to := c.layout.BinaryPath()
	if err := writeFileAtomic(to, data); err != nil {
		return pkgerrors.Wrapf(err, "relocate %s", from)
	}
	log.Infof("catalog: %s holds a PDF, copied to %s", from, to)
	return nil
}

func (c *Cache) extract(ctx context.Context, data []byte) (string, error) {
	if c.extractor == nil {
		return "", fmt.Errorf("%w: no extractor configured", ErrExtractionFailed)
	}
	text, err := c.extractor.Extract(ctx, data)
	if err != nil {
		log.WithError(err).Error("catalog: extraction failed")
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return text, nil
}

func writeFileAtomic(path string, data []byte) error {
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
