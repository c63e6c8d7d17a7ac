package voice

import (
	"errors"
	"fmt"
)

// Capability and permission failures are reported synchronously, before any
// asynchronous work starts.
var (
	ErrCaptureUnsupported   = errors.New("audio capture is not supported on this host")
	ErrSynthesisUnsupported = errors.New("speech synthesis is not supported on this host")
	ErrPermissionDenied     = errors.New("microphone access denied")
)

// Cancellation outcomes delivered on pending operation channels.
var (
	ErrListeningCanceled    = errors.New("listening stopped before a transcript was produced")
	ErrUtteranceInterrupted = errors.New("utterance interrupted by a newer voice operation")
)

// SynthesisError wraps a platform-reported synthesis failure.
type SynthesisError struct {
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }
