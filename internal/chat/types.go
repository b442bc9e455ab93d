package chat

import (
	"errors"

	"pooly/internal/nlu"
)

// ErrMissingInput is returned when a turn lacks its message or client id.
// Nothing is persisted in that case.
var ErrMissingInput = errors.New("messaggio o clientId mancante")

// ErrNoModel means the service was built without a language model.
var ErrNoModel = errors.New("no language model configured")

// TurnRequest is one inbound chat message.
type TurnRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	ClientID  string `json:"clientId"`
}

// TurnResponse carries the reply and the canonical session id.
type TurnResponse struct {
	Reply     string    `json:"reply"`
	SessionID string    `json:"sessionId"`
	Route     nlu.Route `json:"-"`
}

// Replies are the fixed user-facing texts.
type Replies struct {
	CatalogUnavailable string
	NoResults          string
	// ResultsHeader is a format string taking the result count.
	ResultsHeader  string
	UpstreamFailed string
}

// DefaultReplies returns the Italian reply set.
func DefaultReplies() Replies {
	return Replies{
		CatalogUnavailable: "Mi dispiace, non ho il catalogo testuale disponibile al momento.",
		NoResults:          "Non ho trovato risultati nel catalogo per la tua richiesta. Prova con parole chiave diverse (es. modello, misure, materiale).",
		ResultsHeader:      "Ho trovato %d risultati nel catalogo:",
		UpstreamFailed:     "Mi dispiace, momento di pausa cerebrale! 😅 Riprova fra un secondo.",
	}
}
