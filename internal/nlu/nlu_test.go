package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := []struct {
		input   string
		intent  Intent
		keyword string
		trigger string
	}{
		{input: "Che modelli avete?", intent: CatalogIntent, keyword: "modelli"},
		{input: "Mi mandi il CATALOGO?", intent: CatalogIntent, keyword: "catalogo"},
		{input: "Vorrei un preventivo", intent: ContactTrigger, trigger: "preventivo"},
		{input: "preventivo per il modello Art Wall", intent: CatalogIntent, keyword: "modello", trigger: "preventivo"},
		{input: "Ciao, come stai?", intent: General},
		{input: "", intent: General},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			r := c.Classify(tc.input)
			assert.Equal(t, tc.intent, r.Intent)
			assert.Equal(t, tc.keyword, r.Keyword)
			assert.Equal(t, tc.trigger, r.Trigger)
		})
	}
}

func TestClassify_CustomKeywords(t *testing.T) {
	c := NewClassifier([]string{"price list"}, []string{"call me"})

	assert.Equal(t, CatalogIntent, c.Classify("send the Price List").Intent)
	assert.Equal(t, ContactTrigger, c.Classify("please CALL ME").Intent)
	assert.Equal(t, General, c.Classify("catalogo").Intent)
	assert.Equal(t, []string{"call me"}, c.Triggers())
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "general", General.String())
	assert.Equal(t, "catalog", CatalogIntent.String())
	assert.Equal(t, "contact", ContactTrigger.String())
}
