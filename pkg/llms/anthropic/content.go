package anthropic

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
	logging.NewLogger(ctx).Debugf("anthropic.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	log := logging.NewLogger(ctx)

	cfg, err := normalizeGeneratorOptionsForProvider(g.cfg, log)
	if err != nil {
		return "", nil, utils.WrapIfNotNil(err)
	}

	modelName := cfg.ModelOrDefault(defaultModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	contexts := g.contexts.Snapshot()
	system, messages, contextCount := buildMessagesWithContext(g.prompt, contexts)

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q temperature=%v max_tokens=%v",
		providerName,
		len(g.prompt),
		contextCount,
		modelName,
		cfg.Temperature,
		cfg.MaxTokens,
	)

	response, err := g.client.createMessage(ctx, anthropicMessageRequest{
		Model:       modelName,
		MaxTokens:   cfg.MaxTokensOrDefault(defaultMaxTokens),
		Temperature: cfg.Temperature,
		System:      system,
		Messages:    messages,
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyAnthropicMetadata(meta, response)

	text := extractTextFromContentBlocks(response.Content)
	if text == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "response output is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) (string, []anthropicMessage, int) {
	systemParts := make([]string, 0)
	messages := make([]anthropicMessage, 0, len(contexts)+1)
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
			systemParts = append(systemParts, content)
		case model.ContextMessageTypeAssistant:
			messages = append(messages, makeTextMessage("assistant", content))
		default:
			messages = append(messages, makeTextMessage("user", content))
		}
	}

	messages = append(messages, makeTextMessage("user", prompt))
	return strings.Join(systemParts, "\n\n"), messages, contextCount
}

func makeTextMessage(role string, content string) anthropicMessage {
	return anthropicMessage{
		Role: role,
		Content: []anthropicContentBlock{
			{
				Type: "text",
				Text: content,
			},
		},
	}
}

func extractTextFromContentBlocks(content []anthropicContentBlock) string {
	if len(content) == 0 {
		return ""
	}

	parts := make([]string, 0, len(content))
	for _, block := range content {
		if block.Type != "text" {
			continue
		}
		trimmed := strings.TrimSpace(block.Text)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, "\n")
}
