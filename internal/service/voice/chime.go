package voice

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

const (
	chimeSampleRate = beep.SampleRate(44100)
	chimeFreq       = 880
	chimeDuration   = 120 * time.Millisecond
)

// NewChime initializes the speaker and returns a func that plays a short
// tone marking the start of listening. Playback is asynchronous so the
// listening pipeline never waits on it.
func NewChime() (func(), error) {
	if err := speaker.Init(chimeSampleRate, chimeSampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("voice: speaker init: %w", err)
	}
	if _, err := generators.SinTone(chimeSampleRate, chimeFreq); err != nil {
		return nil, fmt.Errorf("voice: chime tone: %w", err)
	}

	return func() {
		tone, err := generators.SinTone(chimeSampleRate, chimeFreq)
		if err != nil {
			return
		}
		speaker.Play(beep.Take(chimeSampleRate.N(chimeDuration), tone))
	}, nil
}
