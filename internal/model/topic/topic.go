package topic

// Topic captures one supported health subject exposed to the frontend.
type Topic struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Icon            string   `json:"icon"`
	Description     string   `json:"description"`
	Intent          string   `json:"intent"`
	SampleQuestions []string `json:"sampleQuestions,omitempty"`
}

// Seed provides the default topic catalog shown as quick suggestions.
func Seed() []Topic {
	return []Topic{
		{
			ID:          "diet",
			Title:       "Healthy Diet Tips",
			Icon:        "🥗",
			Description: "Get personalized nutrition advice",
			Intent:      "HealthyDietTips",
			SampleQuestions: []string{
				"Give me healthy diet tips",
				"What should I eat to stay healthy?",
				"I need nutrition advice",
			},
		},
		{
			ID:          "exercise",
			Title:       "Exercise Recommendations",
			Icon:        "🏃‍♀️",
			Description: "Find the right workout for you",
			Intent:      "ExerciseRecommendations",
			SampleQuestions: []string{
				"What exercises should I do?",
				"Give me workout recommendations",
				"I need fitness advice",
			},
		},
		{
			ID:          "mental",
			Title:       "Mental Wellness",
			Icon:        "🧘‍♀️",
			Description: "Support your mental health",
			Intent:      "MentalWellnessAdvice",
			SampleQuestions: []string{
				"Give me mental wellness tips",
				"How can I manage stress?",
				"Help me with anxiety",
			},
		},
		{
			ID:          "sleep",
			Title:       "Sleep Tips",
			Icon:        "😴",
			Description: "Improve your sleep quality",
			Intent:      "SleepTips",
			SampleQuestions: []string{
				"How can I sleep better?",
				"Give me sleep advice",
				"I have trouble sleeping",
			},
		},
		{
			ID:          "hydration",
			Title:       "Hydration Info",
			Icon:        "💧",
			Description: "Learn about proper hydration",
			Intent:      "HydrationInfo",
			SampleQuestions: []string{
				"How much water should I drink?",
				"Tell me about hydration",
				"Benefits of staying hydrated",
			},
		},
	}
}
