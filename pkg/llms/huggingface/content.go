package huggingface

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

type textGenerator struct {
	client   *apiClient
	prompt   string
	cfg      model.GeneratorConfig
	contexts model.PromptContextList
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindEmptyInput, providerName, "prompt is required", nil))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &textGenerator{
		client: client,
		prompt: prompt,
		cfg:    cfg,
	}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	total := g.contexts.Add(messageType, content)
	logging.NewLogger(ctx).Debugf("huggingface.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	modelName := g.cfg.ModelOrDefault(defaultModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	contexts := g.contexts.Snapshot()
	messages, contextCount := buildMessagesWithContext(g.prompt, contexts)

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q temperature=%v max_tokens=%v",
		providerName,
		len(g.prompt),
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	response, err := g.client.createChatCompletion(ctx, chatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		MaxTokens:   g.cfg.MaxTokensOrDefault(defaultMaxTokens),
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyHuggingFaceMetadata(meta, response)

	if len(response.Choices) == 0 {
		err = model.NewError(model.KindMalformedResponse, providerName, "response has no choices", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	text := extractTextFromResponse(response)
	if text == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "response output is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) ([]chatMessage, int) {
	messages := make([]chatMessage, 0, len(contexts)+1)
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
			messages = append(messages, chatMessage{Role: "system", Content: content})
		case model.ContextMessageTypeAssistant:
			messages = append(messages, chatMessage{Role: "assistant", Content: content})
		default:
			messages = append(messages, chatMessage{Role: "user", Content: content})
		}
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})
	return messages, contextCount
}

func extractTextFromResponse(response *chatCompletionResponse) string {
	if response == nil || len(response.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Choices[0].Message.Content)
}
