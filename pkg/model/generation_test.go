package model

import (
	"fmt"
	"sync"
	"time"
)

func (s *ModelSuite) TestNewGenerationMetadataFillsBlanks() {
	meta := NewGenerationMetadata(" ", "")

	s.Equal("unknown", meta[MetadataKeyProvider])
	s.Equal("unknown", meta[MetadataKeyModel])
}

func (s *ModelSuite) TestRecordLatencyKeepsProviderReportedValue() {
	meta := NewGenerationMetadata("bedrock", "m")
	meta[MetadataKeyLatencyMs] = "42"

	meta.RecordLatency(time.Now().Add(-time.Second))

	s.Equal("42", meta[MetadataKeyLatencyMs])
}

func (s *ModelSuite) TestRecordLatencySetsWallTime() {
	meta := NewGenerationMetadata("openai", "m")

	meta.RecordLatency(time.Now())

	s.Contains(meta, MetadataKeyLatencyMs)
	s.NotPanics(func() { GenerationMetadata(nil).RecordLatency(time.Now()) })
}

func (s *ModelSuite) TestModelOrDefault() {
	blank := "  "
	custom := " claude-x "

	s.Equal("fallback", GeneratorConfig{}.ModelOrDefault("fallback"))
	s.Equal("fallback", GeneratorConfig{Model: &blank}.ModelOrDefault("fallback"))
	s.Equal("claude-x", GeneratorConfig{Model: &custom}.ModelOrDefault("fallback"))
}

func (s *ModelSuite) TestMaxTokensOrDefault() {
	zero, limit := 0, 512

	s.Equal(1024, GeneratorConfig{}.MaxTokensOrDefault(1024))
	s.Equal(1024, GeneratorConfig{MaxTokens: &zero}.MaxTokensOrDefault(1024))
	s.Equal(512, GeneratorConfig{MaxTokens: &limit}.MaxTokensOrDefault(1024))
}

func (s *ModelSuite) TestPromptContextListSnapshotIsDetached() {
	var list PromptContextList
	s.Equal(1, list.Add(ContextMessageTypeSystem, "persona"))

	snapshot := list.Snapshot()
	list.Add(ContextMessageTypeHuman, "later")

	s.Len(snapshot, 1)
	s.Equal(ContextMessageTypeSystem, snapshot[0].MessageType)
	s.Len(list.Snapshot(), 2)
}

func (s *ModelSuite) TestPromptContextListConcurrentAdds() {
	var list PromptContextList
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list.Add(ContextMessageTypeHuman, fmt.Sprintf("ctx-%d", i))
		}()
	}
	wg.Wait()

	s.Len(list.Snapshot(), 20)
}
