package openai

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

type textGenerator struct {
	client   *client
	prompt   string
	cfg      model.GeneratorConfig
	contexts model.PromptContextList
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	return NewCompatibleStringContentGenerator(OpenAIDialect, prompt, opts...)
}

// NewCompatibleStringContentGenerator targets any endpoint that implements the OpenAI chat-completions API.
func NewCompatibleStringContentGenerator(
	dialect Dialect,
	prompt string,
	opts ...model.GeneratorOption,
) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindEmptyInput, dialect.ProviderName, "prompt is required", nil))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	c, err := newClient(dialect, cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &textGenerator{
		client: c,
		prompt: prompt,
		cfg:    cfg,
	}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	total := g.contexts.Add(messageType, content)
	logging.NewLogger(ctx).Debugf("openai.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	provider := g.client.dialect.ProviderName
	modelName := g.cfg.ModelOrDefault(g.client.dialect.DefaultTextModel)
	meta := model.NewGenerationMetadata(provider, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	messages, contextCount := g.messagesWithContext()

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelName),
		Messages: messages,
	}
	if g.cfg.Temperature != nil {
		params.Temperature = openai.Float(*g.cfg.Temperature)
	}
	if g.cfg.MaxTokens != nil && *g.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*g.cfg.MaxTokens))
	}

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q temperature=%v max_tokens=%v",
		provider,
		len(g.prompt),
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	completion, err := g.client.apiClient.Chat.Completions.New(ctx, params)
	if err != nil {
		err = classifyError(provider, err)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if completion == nil {
		err = model.NewError(model.KindMalformedResponse, provider, "chat completions API returned nil response", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyChatCompletionMetadata(meta, completion)

	text := extractTextFromCompletion(completion)
	if text == "" {
		err = model.NewError(model.KindMalformedResponse, provider, "response output is empty", errors.New("no choices with content"))
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func (g *textGenerator) messagesWithContext() ([]openai.ChatCompletionMessageParamUnion, int) {
	return buildMessagesWithContext(g.prompt, g.contexts.Snapshot())
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) ([]openai.ChatCompletionMessageParamUnion, int) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(contexts)+1)
	contextCount := 0

	for _, contextItem := range contexts {
		if contextItem == nil {
			continue
		}

		content := strings.TrimSpace(contextItem.Content)
		if content == "" {
			continue
		}

		contextCount++
		switch contextItem.MessageType {
		case model.ContextMessageTypeSystem:
			messages = append(messages, openai.SystemMessage(content))
		case model.ContextMessageTypeAssistant:
			messages = append(messages, openai.AssistantMessage(content))
		default:
			messages = append(messages, openai.UserMessage(content))
		}
	}

	messages = append(messages, openai.UserMessage(prompt))
	return messages, contextCount
}

func extractTextFromCompletion(completion *openai.ChatCompletion) string {
	if completion == nil || len(completion.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content)
}

func applyChatCompletionMetadata(meta model.GenerationMetadata, completion *openai.ChatCompletion) {
	if meta == nil || completion == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(completion.Usage.PromptTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(completion.Usage.CompletionTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(completion.Usage.TotalTokens, 10)
	meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(completion.Usage.PromptTokensDetails.CachedTokens, 10)
	meta[model.MetadataKeyReasoningTokens] = strconv.FormatInt(completion.Usage.CompletionTokensDetails.ReasoningTokens, 10)

	if strings.TrimSpace(completion.ID) != "" {
		meta[model.MetadataKeyResponseID] = completion.ID
	}
	if len(completion.Choices) > 0 && strings.TrimSpace(string(completion.Choices[0].FinishReason)) != "" {
		meta[model.MetadataKeyResponseStatus] = string(completion.Choices[0].FinishReason)
	}
	if strings.TrimSpace(completion.Model) != "" {
		meta[model.MetadataKeyModel] = completion.Model
	}
}
