package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	transcriptionPattern = regexp.MustCompile(`(?is)TRANSCRIPTION:\s*(.*?)(?:TRANSLATION:|$)`)
	translationPattern   = regexp.MustCompile(`(?is)TRANSLATION:\s*(.*)$`)
)

// TranscriptionResult is the text read from a screenshot and its translation
type TranscriptionResult struct {
	Transcription string `json:"transcription"`
	Translation   string `json:"translation"`
}

// ParseTranscription splits a model response into its labelled sections.
// Without a TRANSCRIPTION label the untouched response is the transcription; without
// a TRANSLATION label the translation is empty.
func ParseTranscription(raw string) TranscriptionResult {
	result := TranscriptionResult{Transcription: raw}

	if m := transcriptionPattern.FindStringSubmatch(raw); m != nil {
		result.Transcription = strings.TrimSpace(m[1])
	}
	if m := translationPattern.FindStringSubmatch(raw); m != nil {
		result.Translation = strings.TrimSpace(m[1])
	}
	return result
}

func (r TranscriptionResult) encode() string {
	data, _ := json.Marshal(r)
	return string(data)
}

func decodeTranscription(cached string) (TranscriptionResult, bool) {
	var r TranscriptionResult
	if err := json.Unmarshal([]byte(cached), &r); err != nil {
		return TranscriptionResult{}, false
	}
	return r, true
}

func imageDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
