// File path: internal/oracle/provider.go
package oracle

import (
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2/option"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/oracle/providers"
)

// NewProvider selects the chat backend from the environment: an OpenAI
// client when OPENAI_API_KEY is set, otherwise the local Ollama-compatible
// provider.
func NewProvider() (providers.Provider, error) {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("oracle: OPENAI_API_KEY not set; using local provider")
		return providers.NewLocalProvider()
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("oracle: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			opts = append(opts, option.WithRequestTimeout(timeout))
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("oracle: using custom endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	logger.Info("oracle: OpenAI provider selected")
	return providers.NewOpenAIProvider(opts...), nil
}
