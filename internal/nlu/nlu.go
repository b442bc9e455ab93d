// Package nlu routes an inbound chat message to a handling strategy using
// lightweight keyword classification.
package nlu

import (
	"strings"

	"pooly/internal/trigger"
)

// Intent is the handling strategy chosen for a message.
type Intent int

const (
	// General messages go to the language model.
	General Intent = iota
	// CatalogIntent messages are answered from the local catalog search.
	CatalogIntent
	// ContactTrigger messages go to the language model and fire a notification.
	ContactTrigger
)

func (i Intent) String() string {
	switch i {
	case CatalogIntent:
		return "catalog"
	case ContactTrigger:
		return "contact"
	default:
		return "general"
	}
}

// DefaultCatalogKeywords mark a message as a product lookup.
var DefaultCatalogKeywords = []string{"catalogo", "modello", "modelli", "espositore", "che modelli", "scheda", "dettagli"}

// Route is the classification of one message.
type Route struct {
	Intent Intent
	// Keyword is the catalog keyword that selected CatalogIntent.
	Keyword string
	// Trigger is the first trigger keyword found, whatever the intent.
	Trigger string
}

// Classifier maps messages to routes. Catalog keywords win over trigger
// keywords: a catalog lookup is answered locally and never notifies.
type Classifier struct {
	catalog  []string
	triggers []string
}

// NewClassifier returns a classifier; nil keyword lists select the defaults.
func NewClassifier(catalogKeywords, triggerKeywords []string) *Classifier {
	if catalogKeywords == nil {
		catalogKeywords = DefaultCatalogKeywords
	}
	if triggerKeywords == nil {
		triggerKeywords = trigger.DefaultKeywords
	}
	return &Classifier{catalog: catalogKeywords, triggers: triggerKeywords}
}

// Triggers returns the configured trigger keywords.
func (c *Classifier) Triggers() []string {
	return c.triggers
}

// Classify picks the route for message.
func (c *Classifier) Classify(message string) Route {
	var r Route
	r.Trigger, _ = trigger.Detect(message, c.triggers)

	lower := strings.ToLower(message)
	for _, k := range c.catalog {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			r.Intent = CatalogIntent
			r.Keyword = k
			return r
		}
	}
	if r.Trigger != "" {
		r.Intent = ContactTrigger
	}
	return r
}
