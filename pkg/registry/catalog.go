package registry

// VendorSpec is the static description of one vendor.
type VendorSpec struct {
	Vendor                    Vendor
	DisplayName               string
	TextModels                []string
	TranscriptionModels       []string
	DefaultTextModel          string
	DefaultTranscriptionModel string
	RequiresCredential        bool
	FreeTier                  bool
	// OpenModelList accepts any model name (locally pulled models).
	OpenModelList bool
}

func (v VendorSpec) SupportsTranscription() bool {
	return len(v.TranscriptionModels) > 0
}

var catalog = map[Vendor]VendorSpec{
	Groq: {
		Vendor:                    Groq,
		DisplayName:               "Groq",
		TextModels:                []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant", "gemma2-9b-it"},
		TranscriptionModels:       []string{"whisper-large-v3", "whisper-large-v3-turbo"},
		DefaultTextModel:          "llama-3.3-70b-versatile",
		DefaultTranscriptionModel: "whisper-large-v3",
		RequiresCredential:        true,
		FreeTier:                  true,
	},
	OpenAI: {
		Vendor:                    OpenAI,
		DisplayName:               "OpenAI",
		TextModels:                []string{"gpt-3.5-turbo", "gpt-4", "gpt-4-turbo", "gpt-4o-mini"},
		TranscriptionModels:       []string{"whisper-1"},
		DefaultTextModel:          "gpt-3.5-turbo",
		DefaultTranscriptionModel: "whisper-1",
		RequiresCredential:        true,
	},
	Gemini: {
		Vendor:                    Gemini,
		DisplayName:               "Google Gemini",
		TextModels:                []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-2.5-pro"},
		TranscriptionModels:       []string{"gemini-2.5-flash", "gemini-2.0-flash"},
		DefaultTextModel:          "gemini-2.5-flash",
		DefaultTranscriptionModel: "gemini-2.5-flash",
		RequiresCredential:        true,
		FreeTier:                  true,
	},
	Anthropic: {
		Vendor:             Anthropic,
		DisplayName:        "Anthropic",
		TextModels:         []string{"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest"},
		DefaultTextModel:   "claude-3-5-sonnet-latest",
		RequiresCredential: true,
	},
	HuggingFace: {
		Vendor:             HuggingFace,
		DisplayName:        "Hugging Face",
		TextModels:         []string{"Qwen/Qwen2.5-72B-Instruct", "meta-llama/Llama-3.1-8B-Instruct"},
		DefaultTextModel:   "Qwen/Qwen2.5-72B-Instruct",
		RequiresCredential: true,
		FreeTier:           true,
	},
	Ollama: {
		Vendor:           Ollama,
		DisplayName:      "Ollama (local)",
		TextModels:       []string{"llama3.1", "mistral", "qwen2.5"},
		DefaultTextModel: "llama3.1",
		OpenModelList:    true,
	},
	Bedrock: {
		Vendor:      Bedrock,
		DisplayName: "AWS Bedrock",
		TextModels: []string{
			"us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			"anthropic.claude-3-haiku-20240307-v1:0",
			"meta.llama3-1-70b-instruct-v1:0",
		},
		DefaultTextModel:   "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		RequiresCredential: true,
	},
}

func (v VendorSpec) hasTextModel(name string) bool {
	return v.OpenModelList || contains(v.TextModels, name)
}

func (v VendorSpec) hasTranscriptionModel(name string) bool {
	return contains(v.TranscriptionModels, name)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
