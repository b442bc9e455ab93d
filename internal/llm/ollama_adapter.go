package llm

import (
	"github.com/tmc/langchaingo/llms/ollama"
)

func newOllamaClient(opts Options) (generator, error) {
	var oo []ollama.Option
	if opts.Model != "" {
		oo = append(oo, ollama.WithModel(opts.Model))
	}
	if opts.BaseURL != "" {
		oo = append(oo, ollama.WithServerURL(opts.BaseURL))
	}
	return ollama.New(oo...)
}
