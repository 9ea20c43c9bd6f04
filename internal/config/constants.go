package config

import "time"

const (
	// Request timeout for primary chat/lead/feedback calls
	RequestTimeout = 60 * time.Second

	// Timeout for fire-and-forget analytics and config fetches
	OptionalTimeout = 10 * time.Second

	// Server config cache duration
	ConfigCacheDuration = 5 * time.Minute

	// Widget config defaults
	DefaultPosition = "bottom-right"
	DefaultColor    = "#3b82f6"
	DefaultGreeting = "Hello! How can I help you today?"
	DefaultBotName  = "Assistant"
	DefaultWidth    = 400
	DefaultHeight   = 600

	// Lead capture defaults
	DefaultLeadMessageCount = 3
	DefaultLeadTitle        = "Get in Touch"
	DefaultLeadDescription  = "We'd love to hear from you! Please share your details."
	DefaultLeadSubmitText   = "Continue"
	DefaultConsentMessage   = "I agree to the collection and processing of my data."

	// Storage key prefixes
	SessionKeyPrefix  = "privexbot_session_"
	FeedbackKeyPrefix = "privexbot_feedback_"

	// Session id prefix: session_<ts>_<rand>_<devicehash>
	SessionIDPrefix = "session"

	// Minimum digits for a phone value to validate
	MinPhoneDigits = 10
)
