// Package responder orchestrates response generation: canned short
// circuits, bounded conversation context, and the dispatch queue.
package responder

import "strings"

// cannedPhrases maps normalized greeting/FAQ phrases to fixed answers.
// Checked exactly first, then permissively (see TryCanned).
var cannedPhrases = map[string]string{
	"how are you":       "Doing great, thanks for asking! How about you?",
	"how are you doing": "Doing great, thanks for asking! How about you?",
	"good morning":      "Good morning! Hope your day goes well.",
	"good afternoon":    "Good afternoon! What can I do for you?",
	"good evening":      "Good evening! What can I do for you?",
	"good night":        "Good night! Sleep well.",
	"what's up":         "Not much, just here. What's up with you?",
	"who are you":       "Just a friend on the other side of the chat. What do you need?",
	"are you there":     "Yes, I'm here. What's up?",
	"thank you so much": "Anytime, happy to help!",
}

// cannedWords maps single-word greeting/thanks literals to fixed answers.
var cannedWords = map[string]string{
	"hi":     "Hey! How can I help you?",
	"hello":  "Hello! What can I do for you?",
	"hey":    "Hey there! What's up?",
	"yo":     "Yo! What's up?",
	"thanks": "You're welcome!",
	"thx":    "You're welcome!",
	"ok":     "👍",
	"okay":   "👍",
	"bye":    "Bye! Take care.",
}

// partialSlack bounds how much longer than a canned key an input may be
// for the permissive containment tier to fire. It keeps long unrelated
// sentences that happen to contain a short phrase from producing a
// canned answer.
const partialSlack = 5

// TryCanned short-circuits well-known trivial inputs with a fixed answer
// before any queueing. It returns the canned answer and true on a hit. A
// hit bypasses the context store and the dispatch queue entirely: no
// rate limiting applies and no context is recorded.
func TryCanned(text string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, "!.?")
	if normalized == "" {
		return "", false
	}

	if answer, ok := cannedPhrases[normalized]; ok {
		return answer, true
	}
	if answer, ok := cannedWords[normalized]; ok {
		return answer, true
	}

	for key, answer := range cannedPhrases {
		if strings.Contains(normalized, key) && len(normalized) <= len(key)+partialSlack {
			return answer, true
		}
	}

	return "", false
}
