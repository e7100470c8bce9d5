// File path: internal/oracle/providers/local.go
package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/nicodishanthj/sqlverdict/internal/common"
)

const defaultLocalModel = "llama3"

// LocalProvider drives a locally hosted model through an Ollama-compatible
// endpoint, used when no OpenAI credentials are configured.
type LocalProvider struct {
	llm   *ollama.LLM
	model string
}

// NewLocalProvider builds the local provider. The model comes from
// SQLVERDICT_LOCAL_MODEL and the endpoint from SQLVERDICT_LOCAL_ENDPOINT.
func NewLocalProvider() (*LocalProvider, error) {
	model := strings.TrimSpace(os.Getenv("SQLVERDICT_LOCAL_MODEL"))
	if model == "" {
		model = defaultLocalModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if endpoint := strings.TrimSpace(os.Getenv("SQLVERDICT_LOCAL_ENDPOINT")); endpoint != "" {
		opts = append(opts, ollama.WithServerURL(endpoint))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("oracle: local provider: %w", err)
	}
	common.Logger().Info("oracle: local provider configured", "model", model)
	return &LocalProvider{llm: llm, model: model}, nil
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("oracle: no messages provided")
	}
	var prompt strings.Builder
	for _, msg := range messages {
		if prompt.Len() > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(msg.Content)
	}
	return llms.GenerateFromSinglePrompt(ctx, l.llm, prompt.String(),
		llms.WithTemperature(0), llms.WithMaxTokens(512))
}

func (l *LocalProvider) Name() string { return "local" }
