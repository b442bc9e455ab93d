package llm

import (
	"os"

	"github.com/tmc/langchaingo/llms/openai"
)

func newOpenAIClient(opts Options) (generator, error) {
	oo := []openai.Option{}
	if opts.Model != "" {
		oo = append(oo, openai.WithModel(opts.Model))
	}
	if opts.BaseURL != "" {
		oo = append(oo, openai.WithBaseURL(opts.BaseURL))
	}
	token := opts.APIKey
	if token == "" {
		token = os.Getenv("OPENAI_API_KEY")
	}
	if token != "" {
		oo = append(oo, openai.WithToken(token))
	}
	return openai.New(oo...)
}
