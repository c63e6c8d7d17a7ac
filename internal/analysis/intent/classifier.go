package intent

import (
	"strings"
	"unicode"
)

// Intent labels for the supported health topics.
const (
	HealthyDietTips         = "HealthyDietTips"
	ExerciseRecommendations = "ExerciseRecommendations"
	MentalWellnessAdvice    = "MentalWellnessAdvice"
	SleepTips               = "SleepTips"
	HydrationInfo           = "HydrationInfo"
	FallbackIntent          = "FallbackIntent"
)

// Result is a single classification outcome.
type Result struct {
	Intent   string
	Response string
}

// Rule binds an intent to its trigger keywords.
type Rule struct {
	Intent   string
	Keywords []string
}

// rules are evaluated in priority order; the first rule with a keyword present
// in the tokenized input wins.
var rules = []Rule{
	{HealthyDietTips, []string{"diet", "nutrition", "eat", "eating", "food", "meal", "meals"}},
	{ExerciseRecommendations, []string{"exercise", "exercises", "workout", "fitness", "gym", "training"}},
	{MentalWellnessAdvice, []string{"mental", "stress", "stressed", "anxiety", "anxious", "mindfulness"}},
	{SleepTips, []string{"sleep", "insomnia", "tired", "bedtime"}},
	{HydrationInfo, []string{"water", "hydration", "hydrated", "drink"}},
}

// Classify maps free text to an intent and its canned response. Pure and
// deterministic; every input resolves to some intent, unknown text falls back
// to FallbackIntent. Callers are expected to reject empty input beforehand.
func Classify(text string) Result {
	tokens := tokenize(text)

	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if _, ok := tokens[keyword]; ok {
				return Result{Intent: rule.Intent, Response: responses[rule.Intent]}
			}
		}
	}

	return Result{Intent: FallbackIntent, Response: responses[FallbackIntent]}
}

// Rules returns the priority-ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[strings.Trim(f, "'")] = struct{}{}
	}
	return tokens
}
