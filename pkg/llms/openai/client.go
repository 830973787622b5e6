package openai

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Dialect describes an endpoint that speaks the OpenAI chat-completions and audio API.
type Dialect struct {
	ProviderName      string
	DefaultBaseURL    string
	DefaultTextModel  string
	DefaultAudioModel string
}

var OpenAIDialect = Dialect{
	ProviderName:      "openai",
	DefaultTextModel:  "gpt-3.5-turbo",
	DefaultAudioModel: "whisper-1",
}

type client struct {
	apiClient openai.Client
	dialect   Dialect
}

func newClient(dialect Dialect, cfg model.GeneratorConfig) (*client, error) {
	token := strings.TrimSpace(cfg.AuthToken)
	if token == "" {
		return nil, utils.WrapIfNotNil(model.NewError(
			model.KindAuthenticationFailed,
			dialect.ProviderName,
			"auth token is required (set WithAuthToken)",
			nil,
		))
	}

	// Retries are off: a failed call is reported to the caller as-is.
	opts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = dialect.DefaultBaseURL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &client{
		apiClient: openai.NewClient(opts...),
		dialect:   dialect,
	}, nil
}

func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(apiErr.StatusCode)
		}
		return utils.NewHTTPStatusError(provider, apiErr.StatusCode, message, err)
	}
	return utils.ClassifyTransportError(provider, err)
}

