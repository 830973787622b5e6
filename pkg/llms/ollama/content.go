package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

type textGenerator struct {
	client   *client
	prompt   string
	cfg      model.GeneratorConfig
	contexts model.PromptContextList
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindEmptyInput, providerName, "prompt is required", nil))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	return &textGenerator{
		client: newClient(cfg),
		prompt: prompt,
		cfg:    cfg,
	}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	total := g.contexts.Add(messageType, content)
	logging.NewLogger(ctx).Debugf("ollama.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ModelOrDefault(defaultGenerationModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	contexts := g.contexts.Snapshot()
	messages, contextCount := buildMessagesWithContext(g.prompt, contexts)

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q base_url=%q",
		providerName,
		len(g.prompt),
		contextCount,
		modelName,
		g.client.baseURL,
	)

	response, err := g.client.chat(ctx, ollamaChatRequest{
		Model:    modelName,
		Messages: toWireMessages(messages),
		Stream:   false,
		Options:  buildOllamaChatOptions(g.cfg),
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyOllamaMetadata(meta, response)

	finalText := strings.TrimSpace(response.Message.Content)
	if finalText == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "response output is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return finalText, meta, nil
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) ([]ollamasdk.ChatMessage, int) {
	messages := make([]ollamasdk.ChatMessage, 0, len(contexts)+1)
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
		role := "user"
		switch contextItem.MessageType {
		case model.ContextMessageTypeSystem:
			role = "system"
		case model.ContextMessageTypeAssistant:
			role = "assistant"
		}
		messages = append(messages, ollamasdk.ChatMessage{
			Role:    role,
			Content: content,
		})
	}

	messages = append(messages, ollamasdk.ChatMessage{
		Role:    "user",
		Content: prompt,
	})

	return messages, contextCount
}

func toWireMessages(messages []ollamasdk.ChatMessage) []ollamaChatMessage {
	out := make([]ollamaChatMessage, 0, len(messages))
	for _, message := range messages {
		out = append(out, ollamaChatMessage{Role: message.Role, Content: message.Content})
	}
	return out
}

func buildOllamaChatOptions(cfg model.GeneratorConfig) *ollamaChatOptions {
	if cfg.Temperature == nil && cfg.MaxTokens == nil {
		return nil
	}

	options := &ollamaChatOptions{}
	if cfg.Temperature != nil {
		temperature := *cfg.Temperature
		options.Temperature = &temperature
	}
	if cfg.MaxTokens != nil {
		numPredict := *cfg.MaxTokens
		options.NumPredict = &numPredict
	}
	return options
}
