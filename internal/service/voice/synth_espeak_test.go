package voice

import "testing"

func TestSynthesizerChoosesVoiceFromCatalog(t *testing.T) {
	synth := &EspeakSynthesizer{voices: []VoiceInfo{
		{Name: "german", Language: "de"},
		{Name: "english-us", Language: "en-us"},
		{Name: "english", Language: "en"},
	}}

	got, ok := synth.chooseVoice("en-US")
	if !ok {
		t.Fatal("chooseVoice(en-US) ok = false, want true")
	}
	if got != "english-us" {
		t.Fatalf("chooseVoice(en-US) = %q, want %q", got, "english-us")
	}

	got, ok = synth.chooseVoice("en-GB")
	if !ok || got != "english-us" {
		t.Fatalf("chooseVoice(en-GB) = %q, %v, want primary-subtag match %q", got, ok, "english-us")
	}
}

func TestSynthesizerWithEmptyCatalogFallsBackToEspeak(t *testing.T) {
	synth := &EspeakSynthesizer{}

	if name, ok := synth.chooseVoice("en-US"); ok || name != "" {
		t.Fatalf("chooseVoice() = %q, %v, want empty miss", name, ok)
	}
}
