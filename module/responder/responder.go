package responder

import "strings"

const (
	// Fallback is returned when no rule matches.
	Fallback = "Thank you for sharing that with me. I'm here to listen and help. Can you tell me more about how you're feeling today?"
	// Unreadable is returned when the content is not text.
	Unreadable = "I'm here to help. Please tell me more about what's on your mind."
)

type rule struct {
	words []string
	reply string
}

// 顺序敏感：命中第一条即返回
var rules = []rule{
	{
		words: []string{"anxiety", "anxious", "worried"},
		reply: "I understand you're feeling anxious. Try taking deep breaths and focusing on the present moment. Would you like to talk about what's making you feel this way?",
	},
	{
		words: []string{"depressed", "sad", "down"},
		reply: "I'm sorry you're feeling this way. It's important to remember that these feelings are temporary. Have you been able to maintain your daily routines?",
	},
	{
		words: []string{"sleep", "insomnia", "tired"},
		reply: "Sleep issues can significantly impact mental health. Try maintaining a consistent sleep schedule and creating a relaxing bedtime routine. How many hours of sleep are you getting?",
	},
	{
		words: []string{"help", "support", "counseling"},
		reply: "It's great that you're reaching out for help. Professional support can be very beneficial. Would you like me to help you find resources in your area?",
	},
}

// Responder turns a user's chat message into a canned supportive reply.
type Responder interface {
	Respond(content any, userID string) string
}

type Keyword struct{}

func New() Keyword { return Keyword{} }

// Respond matches content against the keyword rules. userID is accepted for
// per-user replies but the keyword rules ignore it.
func (Keyword) Respond(content any, _ string) string {
	text, ok := content.(string)
	if !ok {
		return Unreadable
	}
	return Reply(text)
}

func Reply(text string) string {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.reply
			}
		}
	}
	return Fallback
}
