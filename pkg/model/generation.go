package model

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// NewGenerationMetadata seeds the provider and model keys every generator reports.
func NewGenerationMetadata(provider, modelName string) GenerationMetadata {
	if strings.TrimSpace(provider) == "" {
		provider = "unknown"
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return GenerationMetadata{
		MetadataKeyProvider: provider,
		MetadataKeyModel:    modelName,
	}
}

// RecordLatency stores the wall time since start unless the provider already reported one.
func (m GenerationMetadata) RecordLatency(start time.Time) {
	if m == nil {
		return
	}
	if _, ok := m[MetadataKeyLatencyMs]; ok {
		return
	}
	m[MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func (c GeneratorConfig) ModelOrDefault(fallback string) string {
	if c.Model != nil {
		if name := strings.TrimSpace(*c.Model); name != "" {
			return name
		}
	}
	return fallback
}

func (c GeneratorConfig) MaxTokensOrDefault(fallback int) int {
	if c.MaxTokens != nil && *c.MaxTokens > 0 {
		return *c.MaxTokens
	}
	return fallback
}

// PromptContextList collects prompt contexts for a generator. The zero value is ready to use.
type PromptContextList struct {
	mu       sync.RWMutex
	contexts []*PromptContext
}

// Add appends a context and returns how many are held.
func (l *PromptContextList) Add(messageType ContextMessageType, content string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.contexts = append(l.contexts, &PromptContext{
		MessageType: messageType,
		Content:     content,
	})
	return len(l.contexts)
}

// Snapshot copies the held contexts so callers can build a request without holding the lock.
func (l *PromptContextList) Snapshot() []*PromptContext {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*PromptContext(nil), l.contexts...)
}
