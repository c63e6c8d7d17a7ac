package voice

import "time"

// Capability reports which host audio features are usable. Probed once at
// startup; read-only afterwards.
type Capability struct {
	Capture   bool `json:"capture"`
	Synthesis bool `json:"synthesis"`
}

// State is the engine's current voice activity. Listening and Speaking are
// mutually exclusive.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSpeaking  State = "speaking"
)

// SpeakRequest describes one utterance to synthesize.
type SpeakRequest struct {
	Text     string  `json:"text"`
	Rate     float64 `json:"rate,omitempty"`     // playback rate multiplier, 1.0 = normal
	Pitch    float64 `json:"pitch,omitempty"`    // 1.0 = normal
	Volume   float64 `json:"volume,omitempty"`   // 0.0-1.0
	Language string  `json:"language,omitempty"` // BCP 47 tag, e.g. en-US
}

// Transcript is a completed speech recognition result.
type Transcript struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence,omitempty"` // 0.0-1.0, zero when unreported
	Duration   int64     `json:"duration"`             // milliseconds of captured audio
	CreatedAt  time.Time `json:"createdAt"`
}
