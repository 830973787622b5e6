package registry

import (
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/anthropic"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/groq"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/huggingface"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/llms/openai"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

type Vendor string

const (
	Groq        Vendor = "groq"
	OpenAI      Vendor = "openai"
	Gemini      Vendor = "gemini"
	Anthropic   Vendor = "anthropic"
	HuggingFace Vendor = "huggingface"
	Ollama      Vendor = "ollama"
	Bedrock     Vendor = "bedrock"
)

// Vendors is the closed set in catalog order.
var Vendors = []Vendor{Groq, OpenAI, Gemini, Anthropic, HuggingFace, Ollama, Bedrock}

func ParseVendor(value string) (Vendor, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "hf", "hugging-face", "hugging_face":
		normalized = string(HuggingFace)
	case "aws", "aws-bedrock":
		normalized = string(Bedrock)
	}
	for _, vendor := range Vendors {
		if string(vendor) == normalized {
			return vendor, nil
		}
	}
	return "", utils.WrapIfNotNil(model.NewError(
		model.KindUnknownProvider,
		"registry.ParseVendor",
		fmt.Sprintf("unknown provider %q", value),
		nil,
	))
}

// Credentials holds what a vendor needs to authenticate. Bedrock reads APIKey as the access key id.
type Credentials struct {
	APIKey    string
	SecretKey string
	Region    string
	Profile   string
	BaseURL   string
}

func (c Credentials) present(vendor Vendor) bool {
	if vendor == Bedrock {
		hasKeys := strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.SecretKey) != ""
		return hasKeys || strings.TrimSpace(c.Profile) != ""
	}
	return strings.TrimSpace(c.APIKey) != ""
}

// ProviderConfig is the resolved, immutable selection for one stage.
type ProviderConfig struct {
	Vendor             Vendor
	Credentials        Credentials
	TranscriptionModel string
	TextModel          string
}

func (p ProviderConfig) generatorOptions() []model.GeneratorOption {
	opts := []model.GeneratorOption{
		model.WithIgnoreInvalidGeneratorOptions(true),
		model.WithAuthToken(p.Credentials.APIKey),
	}
	if p.Credentials.BaseURL != "" {
		opts = append(opts, model.WithURL(p.Credentials.BaseURL))
	}
	if p.Credentials.SecretKey != "" {
		opts = append(opts, model.WithSecretKey(p.Credentials.SecretKey))
	}
	if p.Credentials.Region != "" {
		opts = append(opts, model.WithRegion(p.Credentials.Region))
	}
	if p.Credentials.Profile != "" {
		opts = append(opts, model.WithProfile(p.Credentials.Profile))
	}
	if p.TextModel != "" {
		opts = append(opts, model.WithModel(p.TextModel))
	}
	return opts
}

// TextTarget binds a vendor's text factory to its config and model.
type TextTarget struct {
	Config ProviderConfig
	Model  string
	New    model.NewStringContentGeneratorFunc
}

// NewGenerator builds a generator with the target's credentials; extra options are applied last.
func (t TextTarget) NewGenerator(prompt string, extra ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if t.New == nil {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "registry.TextTarget", "text target has no factory", nil))
	}
	opts := append(t.Config.generatorOptions(), extra...)
	generator, err := t.New(prompt, opts...)
	return generator, utils.WrapIfNotNil(err)
}

type TranscriptionTarget struct {
	Config ProviderConfig
	Model  string
	New    model.NewAudioTranscriptionGeneratorFunc
}

func (t TranscriptionTarget) NewGenerator(audio model.AudioInput, opts model.AudioOptions) (model.AudioTranscriptionGenerator, error) {
	if t.New == nil {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "registry.TranscriptionTarget", "transcription target has no factory", nil))
	}
	resolved := opts.Clone()
	resolved.IgnoreInvalidGeneratorOptions = true
	resolved.AuthToken = t.Config.Credentials.APIKey
	resolved.URL = t.Config.Credentials.BaseURL
	resolved.Model = t.Model
	generator, err := t.New(audio, resolved)
	return generator, utils.WrapIfNotNil(err)
}

type Registry struct {
	credentials map[Vendor]Credentials
}

func New(credentials map[Vendor]Credentials) *Registry {
	copied := make(map[Vendor]Credentials, len(credentials))
	for vendor, creds := range credentials {
		copied[vendor] = creds
	}
	return &Registry{credentials: copied}
}

func (r *Registry) ResolveTranscription(vendorName string, modelName string) (TranscriptionTarget, error) {
	const op = "registry.ResolveTranscription"
	spec, creds, err := r.lookup(op, vendorName)
	if err != nil {
		return TranscriptionTarget{}, utils.WrapIfNotNil(err)
	}
	if !spec.SupportsTranscription() {
		return TranscriptionTarget{}, utils.WrapIfNotNil(model.NewError(
			model.KindUnsupportedCapability,
			op,
			fmt.Sprintf("%s has no transcription endpoint", spec.DisplayName),
			nil,
		))
	}

	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = spec.DefaultTranscriptionModel
	}
	if !spec.hasTranscriptionModel(modelName) {
		return TranscriptionTarget{}, utils.WrapIfNotNil(unknownModel(op, spec, modelName))
	}

	return TranscriptionTarget{
		Config: ProviderConfig{Vendor: spec.Vendor, Credentials: creds, TranscriptionModel: modelName},
		Model:  modelName,
		New:    transcriptionFactory(spec.Vendor),
	}, nil
}

func (r *Registry) ResolveText(vendorName string, modelName string) (TextTarget, error) {
	const op = "registry.ResolveText"
	spec, creds, err := r.lookup(op, vendorName)
	if err != nil {
		return TextTarget{}, utils.WrapIfNotNil(err)
	}

	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = spec.DefaultTextModel
	}
	if !spec.hasTextModel(modelName) {
		return TextTarget{}, utils.WrapIfNotNil(unknownModel(op, spec, modelName))
	}

	return TextTarget{
		Config: ProviderConfig{Vendor: spec.Vendor, Credentials: creds, TextModel: modelName},
		Model:  modelName,
		New:    textFactory(spec.Vendor),
	}, nil
}

func (r *Registry) lookup(op string, vendorName string) (VendorSpec, Credentials, error) {
	vendor, err := ParseVendor(vendorName)
	if err != nil {
		return VendorSpec{}, Credentials{}, err
	}
	spec := catalog[vendor]
	creds := r.credentials[vendor]
	if spec.RequiresCredential && !creds.present(vendor) {
		return VendorSpec{}, Credentials{}, model.NewError(
			model.KindNoCredential,
			op,
			fmt.Sprintf("no credential configured for %s", spec.DisplayName),
			nil,
		)
	}
	return spec, creds, nil
}

func unknownModel(op string, spec VendorSpec, modelName string) error {
	return model.NewError(
		model.KindUnknownModel,
		op,
		fmt.Sprintf("model %q is not offered by %s", modelName, spec.DisplayName),
		nil,
	)
}

func textFactory(vendor Vendor) model.NewStringContentGeneratorFunc {
	switch vendor {
	case Groq:
		return groq.NewStringContentGenerator
	case OpenAI:
		return openai.NewStringContentGenerator
	case Gemini:
		return gemini.NewStringContentGenerator
	case Anthropic:
		return anthropic.NewStringContentGenerator
	case HuggingFace:
		return huggingface.NewStringContentGenerator
	case Ollama:
		return ollama.NewStringContentGenerator
	case Bedrock:
		return bedrock.NewStringContentGenerator
	}
	return nil
}

func transcriptionFactory(vendor Vendor) model.NewAudioTranscriptionGeneratorFunc {
	switch vendor {
	case Groq:
		return groq.NewAudioTranscriptionGenerator
	case OpenAI:
		return openai.NewAudioTranscriptionGenerator
	case Gemini:
		return gemini.NewAudioTranscriptionGenerator
	case Anthropic, HuggingFace, Ollama, Bedrock:
		return nil
	}
	return nil
}

// VendorInfo is the catalog entry served to clients.
type VendorInfo struct {
	Name                      string   `json:"name"`
	DisplayName               string   `json:"display_name"`
	TextModels                []string `json:"text_models"`
	TranscriptionModels       []string `json:"transcription_models"`
	DefaultTextModel          string   `json:"default_text_model"`
	DefaultTranscriptionModel string   `json:"default_transcription_model,omitempty"`
	RequiresCredential        bool     `json:"requires_credential"`
	Configured                bool     `json:"configured"`
	FreeTier                  bool     `json:"free_tier"`
}

func (r *Registry) Catalog() []VendorInfo {
	out := make([]VendorInfo, 0, len(Vendors))
	for _, vendor := range Vendors {
		spec := catalog[vendor]
		out = append(out, VendorInfo{
			Name:                      string(vendor),
			DisplayName:               spec.DisplayName,
			TextModels:                append([]string{}, spec.TextModels...),
			TranscriptionModels:       append([]string{}, spec.TranscriptionModels...),
			DefaultTextModel:          spec.DefaultTextModel,
			DefaultTranscriptionModel: spec.DefaultTranscriptionModel,
			RequiresCredential:        spec.RequiresCredential,
			Configured:                !spec.RequiresCredential || r.credentials[vendor].present(vendor),
			FreeTier:                  spec.FreeTier,
		})
	}
	return out
}

// Spec returns the static entry for a vendor.
func Spec(vendor Vendor) (VendorSpec, bool) {
	spec, ok := catalog[vendor]
	return spec, ok
}
