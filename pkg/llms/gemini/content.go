package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	"google.golang.org/genai"
)

type textGenerator struct {
	prompt   string
	cfg      model.GeneratorConfig
	contexts model.PromptContextList
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	const fn = "gemini.NewStringContentGenerator"
	cfg := model.ResolveGeneratorOpts(opts...)
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindEmptyInput, providerName, "prompt is required", nil), fn)
	}
	return &textGenerator{prompt: prompt, cfg: cfg}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	total := g.contexts.Add(messageType, content)
	logging.NewLogger(ctx).Debugf("gemini.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ModelOrDefault(defaultGenerationModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	contexts := g.contexts.Snapshot()

	systemInstruction, contents, contextCount := buildContentsWithContext(g.prompt, contexts)
	config := buildGenerateContentConfig(g.cfg, systemInstruction)

	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q temperature=%v max_tokens=%v",
		providerName,
		len(g.prompt),
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	response, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		err = classifyError(err)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	text := ""
	if response != nil {
		text = strings.TrimSpace(response.Text())
	}
	if text == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "response output is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildContentsWithContext(prompt string, contexts []*model.PromptContext) (*genai.Content, []*genai.Content, int) {
	systemParts := make([]string, 0)
	contents := make([]*genai.Content, 0, len(contexts)+1)
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
			contents = append(contents, genai.NewContentFromText(content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(content, genai.RoleUser))
		}
	}

	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	if len(systemParts) == 0 {
		return nil, contents, contextCount
	}

	systemInstruction := genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	return systemInstruction, contents, contextCount
}

func buildGenerateContentConfig(cfg model.GeneratorConfig, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}
	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		config.Temperature = &temp
	}
	if cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*cfg.MaxTokens)
	}

	return config
}
