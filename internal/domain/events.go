package domain

// Analytics event types. Every user-visible action emits one of these on a
// best-effort basis; failures never block the primary flow.
const (
	EventWidgetLoaded  = "widget_loaded"
	EventWidgetOpened  = "widget_opened"
	EventWidgetClosed  = "widget_closed"
	EventMessageSent   = "message_sent"
	EventLeadCollected = "lead_collected"
	EventLeadSkipped   = "lead_skipped"
	EventFeedbackGiven = "feedback_given"
)
