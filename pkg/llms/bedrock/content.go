package bedrock

import (
	"context"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type textGenerator struct {
	prompt   string
	cfg      model.GeneratorConfig
	contexts model.PromptContextList
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindEmptyInput, providerName, "prompt is required", nil))
	}

	return &textGenerator{
		prompt: prompt,
		cfg:    model.ResolveGeneratorOpts(opts...),
	}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	total := g.contexts.Add(messageType, content)
	logging.NewLogger(ctx).Debugf("bedrock.textGenerator.AddPromptContext total_contexts=%d", total)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := g.cfg.ModelOrDefault(defaultModelName)
	meta := model.NewGenerationMetadata(providerName, modelName)
	defer meta.RecordLatency(start)

	log := logging.NewLogger(ctx)
	client, err := newClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	contexts := g.contexts.Snapshot()
	system, messages, contextCount := buildMessagesWithContext(g.prompt, contexts)

	log.Infof(
		"provider=%s prompt_chars=%d context_count=%d model=%q temperature=%v max_tokens=%v",
		providerName,
		len(g.prompt),
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelName),
		Messages:        messages,
		InferenceConfig: buildInferenceConfig(g.cfg),
	}
	if len(system) > 0 {
		input.System = system
	}

	output, err := client.Converse(ctx, input)
	if err != nil {
		err = classifyError(err)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyBedrockMetadata(meta, output)

	message, ok := output.Output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || message == nil {
		err = model.NewError(model.KindMalformedResponse, providerName, "converse output is not a message", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	text := extractTextFromMessage(message.Value)
	if text == "" {
		err = model.NewError(model.KindMalformedResponse, providerName, "response output is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func buildMessagesWithContext(
	prompt string,
	contexts []*model.PromptContext,
) ([]bedrocktypes.SystemContentBlock, []bedrocktypes.Message, int) {
	system := make([]bedrocktypes.SystemContentBlock, 0)
	messages := make([]bedrocktypes.Message, 0, len(contexts)+1)
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
			system = append(system, &bedrocktypes.SystemContentBlockMemberText{Value: content})
		case model.ContextMessageTypeAssistant:
			messages = append(messages, textMessage(bedrocktypes.ConversationRoleAssistant, content))
		default:
			messages = append(messages, textMessage(bedrocktypes.ConversationRoleUser, content))
		}
	}

	messages = append(messages, textMessage(bedrocktypes.ConversationRoleUser, prompt))
	return system, messages, contextCount
}

func textMessage(role bedrocktypes.ConversationRole, content string) bedrocktypes.Message {
	return bedrocktypes.Message{
		Role: role,
		Content: []bedrocktypes.ContentBlock{
			&bedrocktypes.ContentBlockMemberText{Value: content},
		},
	}
}

func buildInferenceConfig(cfg model.GeneratorConfig) *bedrocktypes.InferenceConfiguration {
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}

	inference := &bedrocktypes.InferenceConfiguration{}
	if cfg.MaxTokens != nil {
		inference.MaxTokens = aws.Int32(int32(*cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*cfg.Temperature))
	}
	return inference
}

func extractTextFromMessage(message bedrocktypes.Message) string {
	parts := make([]string, 0)
	for _, block := range message.Content {
		textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText)
		if !ok || textBlock == nil {
			continue
		}
		value := strings.TrimSpace(textBlock.Value)
		if value == "" {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, "\n")
}
