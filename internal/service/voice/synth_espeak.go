package voice

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static const espeak_VOICE **installed_voices;

static int
espeak_setup(void)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	installed_voices = espeak_ListVoices(NULL);

	return 0;
}

static int
espeak_voice_count(void)
{
	int n = 0;

	if (!installed_voices)
	{ return 0; }
	while (installed_voices[n])
	{ n++; }

	return n;
}

static const char *
espeak_voice_name(int i)
{
	return installed_voices[i]->name;
}

// languages holds (priority byte, NUL-terminated tag) pairs; the first
// entry is the voice's primary language.
static const char *
espeak_voice_language(int i)
{
	const char *langs = installed_voices[i]->languages;

	if (!langs || !langs[0])
	{ return ""; }

	return langs + 1;
}

static int
espeak_say(const char *text, const char *voice, const char *lang,
           int rate, int pitch, int volume)
{
	if (!text)
	{ return -1; }

	if (voice && voice[0])
	{
		if (espeak_SetVoiceByName(voice) != EE_OK)
		{ return -1; }
	}
	else
	{
		espeak_VOICE specs;
		memset(&specs, 0, sizeof(specs));
		specs.languages = lang;
		if (espeak_SetVoiceByProperties(&specs) != EE_OK)
		{ return -1; }
	}

	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakPITCH, pitch, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	if (espeak_Synth(text, strlen(text) + 1, 0, 0, 0,
	                 espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -1; }

	espeak_Synchronize();

	return 0;
}

static void
espeak_stop(void)
{
	espeak_Cancel();
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	voicemodel "github.com/nwatkins/health-adviser/internal/model/voice"
)

// espeak-ng keeps global state, so one synthesizer serves the whole process.
var (
	espeakOnce    sync.Once
	espeakInitErr error
	espeakMu      sync.Mutex
)

// EspeakSynthesizer speaks through the system espeak-ng library. The catalog
// of installed voices is enumerated once at construction and each utterance
// runs its language through SelectVoice to pick one. Rate, pitch and volume
// arrive as multipliers of the engine defaults and are mapped to espeak's
// parameter scales.
type EspeakSynthesizer struct {
	voices []VoiceInfo
}

// NewEspeakSynthesizer initializes espeak-ng once. Errors mean synthesis is
// unavailable; callers degrade to text-only replies.
func NewEspeakSynthesizer() (*EspeakSynthesizer, error) {
	espeakOnce.Do(func() {
		if rc := C.espeak_setup(); rc < 0 {
			espeakInitErr = fmt.Errorf("voice: espeak init failed: %d", int(rc))
		}
	})
	if espeakInitErr != nil {
		return nil, espeakInitErr
	}
	return &EspeakSynthesizer{voices: listEspeakVoices()}, nil
}

// Voices returns the installed voice catalog.
func (s *EspeakSynthesizer) Voices() []VoiceInfo {
	return append([]VoiceInfo(nil), s.voices...)
}

// chooseVoice resolves the voice for one utterance from the installed
// catalog.
func (s *EspeakSynthesizer) chooseVoice(language string) (string, bool) {
	v, ok := SelectVoice(s.voices, language)
	if !ok {
		return "", false
	}
	return v.Name, true
}

// Speak blocks until the utterance finishes playing or ctx is canceled.
// Cancellation stops playback mid-utterance.
func (s *EspeakSynthesizer) Speak(ctx context.Context, req voicemodel.SpeakRequest) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil
	}

	espeakMu.Lock()
	defer espeakMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			C.espeak_stop()
		case <-stop:
		}
	}()
	defer close(stop)

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(espeakLanguage(req.Language))
	defer C.free(unsafe.Pointer(clang))

	// An empty name falls back to espeak's own language matching.
	name, _ := s.chooseVoice(req.Language)
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	rc := C.espeak_say(ctext, cname, clang,
		C.int(espeakRate(req.Rate)),
		C.int(espeakPitch(req.Pitch)),
		C.int(espeakVolume(req.Volume)))

	if err := ctx.Err(); err != nil {
		return err
	}
	if rc != 0 {
		return errors.New("voice: espeak synthesis failed")
	}
	return nil
}

func listEspeakVoices() []VoiceInfo {
	n := int(C.espeak_voice_count())
	voices := make([]VoiceInfo, 0, n)
	for i := 0; i < n; i++ {
		voices = append(voices, VoiceInfo{
			Name:     C.GoString(C.espeak_voice_name(C.int(i))),
			Language: C.GoString(C.espeak_voice_language(C.int(i))),
		})
	}
	return voices
}

func espeakLanguage(tag string) string {
	if tag == "" {
		return "en"
	}
	return strings.ToLower(tag)
}

// espeakRate maps a speed multiplier onto words per minute. espeak's default
// is 175 wpm with a valid range of 80 to 450.
func espeakRate(mult float64) int {
	if mult <= 0 {
		mult = 1
	}
	return clampInt(int(175*mult), 80, 450)
}

// espeakPitch maps a pitch multiplier onto espeak's 0..99 scale, where 50 is
// the voice default.
func espeakPitch(mult float64) int {
	if mult <= 0 {
		mult = 1
	}
	return clampInt(int(50*mult), 0, 99)
}

// espeakVolume maps a 0..1 gain onto espeak's 0..200 scale, where 100 is
// normal volume.
func espeakVolume(gain float64) int {
	if gain <= 0 {
		gain = 1
	}
	return clampInt(int(100*gain), 0, 200)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
