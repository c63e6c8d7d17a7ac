package voice

import "strings"

// VoiceInfo describes one installed synthesis voice.
type VoiceInfo struct {
	Name     string
	Language string
	Default  bool
}

// Vendors whose voices consistently sound natural. Matching is by substring
// of the voice name, case-insensitive.
var preferredVendors = []string{"google", "microsoft", "amazon"}

// SelectVoice picks the best installed voice for language. Preference order:
// a vendor voice matching the language, any voice matching the language, the
// platform default, the first voice. Language matching compares the primary
// subtag, so "en-US" accepts "en-GB" voices before falling back.
func SelectVoice(voices []VoiceInfo, language string) (VoiceInfo, bool) {
	if len(voices) == 0 {
		return VoiceInfo{}, false
	}

	exact := filterByLanguage(voices, language, false)
	if v, ok := pickPreferred(exact); ok {
		return v, true
	}
	if len(exact) > 0 {
		return exact[0], true
	}

	primary := filterByLanguage(voices, language, true)
	if v, ok := pickPreferred(primary); ok {
		return v, true
	}
	if len(primary) > 0 {
		return primary[0], true
	}

	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return voices[0], true
}

func filterByLanguage(voices []VoiceInfo, language string, primaryOnly bool) []VoiceInfo {
	want := strings.ToLower(language)
	if primaryOnly {
		want = primarySubtag(want)
	}
	if want == "" {
		return nil
	}

	var out []VoiceInfo
	for _, v := range voices {
		got := strings.ToLower(v.Language)
		if primaryOnly {
			got = primarySubtag(got)
		}
		if got == want {
			out = append(out, v)
		}
	}
	return out
}

func pickPreferred(voices []VoiceInfo) (VoiceInfo, bool) {
	for _, v := range voices {
		name := strings.ToLower(v.Name)
		for _, vendor := range preferredVendors {
			if strings.Contains(name, vendor) {
				return v, true
			}
		}
	}
	return VoiceInfo{}, false
}

func primarySubtag(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		return tag[:i]
	}
	return tag
}
