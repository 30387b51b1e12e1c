// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import "fmt"

// Mode selects the pipeline topology the bot builds.
type Mode string

const (
	// ModeThreeTier runs separate speech-to-text, LLM, and
	// text-to-speech stages.
	ModeThreeTier Mode = "three_tier"

	// ModeSpeechToSpeech runs a single speech-to-speech model.
	ModeSpeechToSpeech Mode = "s2s"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeThreeTier || m == ModeSpeechToSpeech
}

// ParseMode converts an operator-supplied string into a Mode.
func ParseMode(value string) (Mode, error) {
	mode := Mode(value)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", value, ModeThreeTier, ModeSpeechToSpeech)
	}
	return mode, nil
}

// Default values, matching what a fresh sandbox starts with.
const (
	DefaultSystemPrompt   = "You are a friendly voice assistant for kids. Keep responses short, clear, and age-appropriate."
	DefaultActivityPrompt = ""
	DefaultMode           = ModeThreeTier
	DefaultSTTProvider    = "deepgram"
	DefaultLLMProvider    = "openai"
	DefaultTTSProvider    = "cartesia"
	DefaultS2SProvider    = "openai_realtime"
)

// SessionConfig is the configuration submitted to the bot-launch
// endpoint. All provider fields are transmitted regardless of Mode;
// the bot uses the subset that applies.
//
// SessionConfig contains only value fields. Assigning or passing it by
// value produces an independent copy.
type SessionConfig struct {
	SystemPrompt   string `json:"system_prompt"`
	ActivityPrompt string `json:"activity_prompt"`
	Mode           Mode   `json:"mode"`
	STTProvider    string `json:"stt_provider"`
	LLMProvider    string `json:"llm_provider"`
	TTSProvider    string `json:"tts_provider"`
	S2SProvider    string `json:"s2s_provider"`
}

// Default returns the configuration a sandbox starts with when nothing
// has been persisted.
func Default() SessionConfig {
	return SessionConfig{
		SystemPrompt:   DefaultSystemPrompt,
		ActivityPrompt: DefaultActivityPrompt,
		Mode:           DefaultMode,
		STTProvider:    DefaultSTTProvider,
		LLMProvider:    DefaultLLMProvider,
		TTSProvider:    DefaultTTSProvider,
		S2SProvider:    DefaultS2SProvider,
	}
}

// ActiveProviders returns the providers that matter for the selected
// mode, in pipeline order.
func (c SessionConfig) ActiveProviders() []string {
	if c.Mode == ModeSpeechToSpeech {
		return []string{c.S2SProvider}
	}
	return []string{c.STTProvider, c.LLMProvider, c.TTSProvider}
}
