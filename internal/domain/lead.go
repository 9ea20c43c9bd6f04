package domain

// Lead-capture timing modes.
const (
	LeadTimingBeforeChat    = "before_chat"
	LeadTimingAfterMessages = "after_messages"
)

// Standard field visibility states used by the newer config generation.
const (
	FieldRequired = "required"
	FieldOptional = "optional"
	FieldHidden   = "hidden"
)

// FieldSpec is the canonical form of one lead form field. Both historical
// config shapes normalize into an ordered sequence of these.
type FieldSpec struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// ConsentConfig controls the GDPR consent checkbox on the lead form.
type ConsentConfig struct {
	Require bool
	Message string
}

// LeadCaptureConfig is the resolved lead-capture policy.
type LeadCaptureConfig struct {
	Enabled      bool
	Timing       string
	MessageCount int
	Fields       []FieldSpec
	AllowSkip    bool
	Consent      ConsentConfig

	Title       string
	Description string
	SubmitText  string
}

// LeadSubmission is a validated lead form payload ready to post.
type LeadSubmission struct {
	Fields       map[string]string
	ConsentGiven bool
}
