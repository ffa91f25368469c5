package server

import "github.com/nexa-assistant/nexa/internal/intent"

// Canned voice-session phrases. Questions keep the session open,
// statements end it.
var cannedMessages = map[string]intent.PublicResponse{
	"launch": {
		Type:     intent.ResponseQuestion,
		Response: "Welcome to Nexa! How can I assist you today?",
	},
	"fallback": {
		Type:     intent.ResponseQuestion,
		Response: "Sorry, I didn't get that. Can you please repeat?",
	},
	"help": {
		Type:     intent.ResponseQuestion,
		Response: "You can ask me to do various tasks like setting reminders, providing weather updates, and more. How can I help you?",
	},
	"goodbye": {
		Type:     intent.ResponseStatement,
		Response: "Goodbye! Have a great day!",
	},
	"stop": {
		Type:     intent.ResponseStatement,
		Response: "Stopping now. Have a great day!",
	},
	"cancel": {
		Type:     intent.ResponseStatement,
		Response: "Canceling your request. Have a great day!",
	},
	"session-ended": {
		Type:     intent.ResponseStatement,
		Response: "We are done here. Have a great day!",
	},
}
