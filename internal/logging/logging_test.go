package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"VERBOSE", log.DebugLevel},
		{"info", log.InfoLevel},
		{"Warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"silent", log.FatalLevel},
		{"", log.InfoLevel},
		{"foobar", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			log.SetLevel(log.PanicLevel)
			SetLogLevel(tt.input)
			assert.Equal(t, tt.expected, log.GetLevel())
		})
	}
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pooly.log")
	closer, err := Setup(Options{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		closer.Close()
		log.SetOutput(os.Stderr)
	})

	log.Info("hello file")
	assert.FileExists(t, path)
}

func newRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log.SetOutput(buf)
	log.SetLevel(log.InfoLevel)

	r := gin.New()
	r.Use(GinLogrusLogger(), GinLogrusRecovery())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })
	r.GET("/quiet", func(c *gin.Context) {
		SkipGinRequestLogging(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func TestGinLogrusLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())
	assert.Contains(t, buf.String(), "request_id=req-123")
	assert.Contains(t, buf.String(), "/ok?x=1")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestGinLogrusLogger_Skip(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/quiet", nil))
	assert.Empty(t, buf.String())
}

func TestGinLogrusRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "recovered from panic")
	assert.Contains(t, buf.String(), "level=error")
}
