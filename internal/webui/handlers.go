package webui

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"pooly/internal/catalog"
	"pooly/internal/chat"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (s *Server) handleChat(c *gin.Context) {
	var req chat.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Richiesta non valida"})
		return
	}

	resp, err := s.service.HandleTurn(c.Request.Context(), req)
	if errors.Is(err, chat.ErrMissingInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messaggio o clientId mancante"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"reply": chat.DefaultReplies().UpstreamFailed, "sessionId": req.SessionID})
		return
	}

	s.metrics.chatTurns.WithLabelValues(resp.Route.Intent.String()).Inc()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCatalogInfo(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := s.opts.Layout.Describe()
		switch a.Kind() {
		case "pdf":
			c.JSON(http.StatusOK, gin.H{"type": "pdf", "message": "CATALOGO: file PDF presente", "url": prefix + "/pdf"})
		case "text":
			data, err := os.ReadFile(a.TextPath)
			if err != nil {
				log.WithError(err).WithField("path", a.TextPath).Error("webui: read catalog text")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Errore interno caricamento catalogo"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"type": "text", "content": string(data)})
		default:
			c.JSON(http.StatusNotFound, gin.H{"type": "not_found", "message": "CATALOGO NON TROVATO"})
		}
	}
}

func (s *Server) handleCatalogPDF(c *gin.Context) {
	a := s.opts.Layout.Describe()
	if !a.HasBinary {
		c.String(http.StatusNotFound, "PDF catalogo non trovato")
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.File(a.BinaryPath)
}

func (s *Server) handleCatalogTxt(c *gin.Context) {
	a := s.opts.Layout.Describe()
	if !a.HasText {
		c.String(http.StatusNotFound, "Catalogo testuale non trovato")
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.File(a.TextPath)
}

func (s *Server) handleCatalogSearch(c *gin.Context) {
	q := firstNonEmpty(c.Query("q"), c.Query("qs"), c.Query("query"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `query param "q" mancante`})
		return
	}

	ctx := c.Request.Context()
	if _, ok := s.service.CatalogText(ctx); !ok {
		s.metrics.searches.WithLabelValues("unavailable").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogo testuale non disponibile"})
		return
	}
	results := s.service.SearchCatalog(ctx, q, s.opts.SearchLimit)
	outcome := "hit"
	if len(results) == 0 {
		outcome = "miss"
	}
	s.metrics.searches.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, gin.H{"query": q, "count": len(results), "results": results})
}

func (s *Server) handleGenerateText(c *gin.Context) {
	gen, err := s.service.RegenerateCatalogText(c.Request.Context())
	switch {
	case errors.Is(err, catalog.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogo PDF non trovato"})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Errore interno generazione catalogo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catalogo testuale generato", "path": gen.Path, "length": gen.Length})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
