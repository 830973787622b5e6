package model

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const DefaultMaxAudioBytes int64 = 25 * 1024 * 1024

// SupportedAudioExtensions lists the upload extensions accepted by every transcription provider.
var SupportedAudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".mp4", ".mpeg", ".mpga", ".webm"}

type AudioKeyword struct {
	Word           string   `json:"word,omitempty"`
	CommonMistypes []string `json:"common_mistypes,omitempty"`
	Definition     string   `json:"definition,omitempty"`
}

// AudioInput is an uploaded lecture recording held in memory.
type AudioInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

type AudioOptions struct {
	IgnoreInvalidGeneratorOptions bool
	URL                           string
	AuthToken                     string
	Model                         string
	// Language is an ISO-639-1 hint, e.g. "en". Empty lets the provider detect it.
	Language string
	// MaxBytes caps the payload size. Zero means DefaultMaxAudioBytes.
	MaxBytes int64
	// Prompt optionally overrides the provider's default audio prompt behavior.
	// When Prompt is set, keyword hints are not appended.
	Prompt string
	// Keywords provides lecture terms that may be missed in transcription.
	// Providers may convert this into: "Common missed words: <json>"
	// when Prompt is empty.
	Keywords []AudioKeyword
}

type AudioTranscriptionGenerator interface {
	Generate(ctx context.Context) (TranscriptResult, GenerationMetadata, error)
}

func (o AudioOptions) Clone() AudioOptions {
	cloned := o
	if len(o.Keywords) == 0 {
		cloned.Keywords = nil
		return cloned
	}

	cloned.Keywords = make([]AudioKeyword, len(o.Keywords))
	for i, keyword := range o.Keywords {
		clonedKeyword := keyword
		if len(keyword.CommonMistypes) > 0 {
			clonedKeyword.CommonMistypes = append([]string(nil), keyword.CommonMistypes...)
		} else {
			clonedKeyword.CommonMistypes = nil
		}
		cloned.Keywords[i] = clonedKeyword
	}

	return cloned
}

func (o AudioOptions) EffectiveMaxBytes() int64 {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxAudioBytes
}

// ValidateAudio runs before any provider call is attempted.
func ValidateAudio(audio AudioInput, maxBytes int64) error {
	const op = "model.ValidateAudio"
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioBytes
	}

	if len(audio.Data) == 0 {
		return NewError(KindEmptyInput, op, "audio payload is empty", nil)
	}
	if int64(len(audio.Data)) > maxBytes {
		return NewError(
			KindPayloadTooLarge,
			op,
			fmt.Sprintf("audio is %.1f MB, limit is %.1f MB", megabytes(int64(len(audio.Data))), megabytes(maxBytes)),
			nil,
		)
	}
	if !IsSupportedAudioFile(audio.Filename) {
		return NewError(
			KindUnsupportedFormat,
			op,
			fmt.Sprintf("unsupported audio file %q (supported: %s)", audio.Filename, strings.Join(SupportedAudioExtensions, ", ")),
			nil,
		)
	}
	return nil
}

func IsSupportedAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	for _, supported := range SupportedAudioExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// AudioMIMEType maps a file name to the audio mime type providers expect.
func AudioMIMEType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == "" {
		return "", NewError(KindUnsupportedFormat, "model.AudioMIMEType", "audio file extension is required to determine mime type", nil)
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3", ".mpeg", ".mpga":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", NewError(KindUnsupportedFormat, "model.AudioMIMEType", "unsupported audio file extension: "+ext, nil)
	}
	return mimeType, nil
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
