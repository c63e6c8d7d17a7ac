package intent

// Disclaimer is appended to every educational response.
const Disclaimer = "⚠️ Important: This is general health information for educational purposes only. Always consult with qualified healthcare providers for personalized medical guidance."

// responses maps every intent to exactly one fixed educational text. The
// mapping is total; the fallback enumerates the supported topics instead of
// giving advice.
var responses = map[string]string{
	HealthyDietTips: `Here's some excellent nutrition guidance:

🥗 Focus on whole foods - fruits, vegetables, lean proteins, and whole grains provide essential nutrients.

🍽️ Practice portion control using the plate method: half vegetables, quarter protein, quarter whole grains.

💧 Stay hydrated with 8-10 glasses of water daily to support all bodily functions.

` + Disclaimer,

	ExerciseRecommendations: `Here are some effective exercise strategies:

🏃‍♀️ Aim for at least 150 minutes of moderate aerobic activity or 75 minutes of vigorous activity per week.

💪 Include strength training exercises 2-3 times per week targeting all major muscle groups.

🧘‍♀️ Incorporate flexibility and balance exercises like yoga or tai chi into your routine.

` + Disclaimer,

	MentalWellnessAdvice: `Here are some mental wellness approaches:

🧘‍♀️ Practice mindfulness and meditation for 10-15 minutes daily to reduce stress and improve focus.

🌱 Maintain strong social connections - spend quality time with family and friends regularly.

📝 Keep a gratitude journal to focus on positive aspects of life and improve mental outlook.

` + Disclaimer,

	SleepTips: `Here are some sleep optimization tips:

😴 Maintain a consistent sleep schedule, going to bed and waking up at the same time daily.

📱 Create a relaxing bedtime routine - dim lights, avoid screens 1 hour before bed.

🌡️ Keep your bedroom cool (65-68°F), dark, and quiet for optimal sleep conditions.

` + Disclaimer,

	HydrationInfo: `Here's what you should know about proper hydration:

💧 Aim for about 8 glasses (64 oz) of water daily, but needs vary based on activity and climate.

🏃‍♀️ Increase water intake during exercise, hot weather, or when feeling unwell.

🍉 Include water-rich foods like fruits and vegetables to support hydration goals.

` + Disclaimer,

	FallbackIntent: `Hello! I'm your Health Advice Assistant. I can provide guidance on:

🥗 Healthy nutrition and diet tips
🏃‍♀️ Exercise and fitness recommendations
🧘‍♀️ Mental wellness and stress management
😴 Sleep improvement strategies
💧 Hydration and water intake guidance

What would you like to learn about today?`,
}
