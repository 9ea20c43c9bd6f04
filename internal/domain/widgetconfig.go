package domain

// WidgetConfig is the resolved, fully-defaulted widget configuration. Fields
// explicitly supplied at embed time win over server-supplied values; the
// server only fills keys absent locally.
type WidgetConfig struct {
	BotID   string
	APIKey  string
	BaseURL string

	Position     string
	Color        string
	Greeting     string
	BotName      string
	ShowBranding bool
	Width        int
	Height       int
	AvatarURL    string
	FontFamily   string

	Lead *LeadCaptureConfig
}

// HostInfo describes the embedding environment. It is supplied once by the
// host adapter and feeds page metadata and the device-hash component of
// generated session ids.
type HostInfo struct {
	URL                   string
	Referrer              string
	UserAgent             string
	ScreenWidth           int
	ScreenHeight          int
	TimezoneOffsetMinutes int

	// PageHTML is an optional snapshot of the host document, parsed for
	// title/description metadata when present.
	PageHTML string
}

// PageMetadata accompanies every chat message and lead submission.
type PageMetadata struct {
	URL         string `json:"url,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical_url,omitempty"`
	Timestamp   string `json:"timestamp"`
}
