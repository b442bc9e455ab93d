package llm

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/googleai"
)

func newGeminiClient(opts Options) (generator, error) {
	model := opts.Model
	if model == "" {
		model = googleai.DefaultOptions().DefaultModel
	}
	oo := []googleai.Option{googleai.WithDefaultModel(model)}
	// googleai has no endpoint override: a base URL only selects the REST
	// transport against Google's default endpoint.
	if opts.BaseURL != "" {
		log.WithField("base_url", opts.BaseURL).Warn("llm: gemini ignores base-url, using the REST transport")
		oo = append(oo, googleai.WithRest())
	}
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key != "" {
		oo = append(oo, googleai.WithAPIKey(key))
	}
	return googleai.New(context.Background(), oo...)
}
