package service

import (
	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
)

// Config resolution happens once at the boundary: both embed-time shapes
// (bare id string, structured payload with nested options) and both lead
// field generations are normalized here, so the rest of the engine only ever
// sees the canonical shape.

// keyAliases maps every historical config key spelling to its canonical
// name. Applied to embed payloads and server-supplied partial configs alike
// so the local-wins merge compares like with like.
var keyAliases = map[string]string{
	"botId":           "id",
	"bot_id":          "id",
	"api_key":         "apiKey",
	"apikey":          "apiKey",
	"base_url":        "baseURL",
	"baseUrl":         "baseURL",
	"bot_name":        "botName",
	"show_branding":   "showBranding",
	"avatar_url":      "avatarURL",
	"avatarUrl":       "avatarURL",
	"font_family":     "fontFamily",
	"lead_config":     "leadConfig",
	"welcome_message": "greeting",
	"primary_color":   "color",
}

// NormalizeInit flattens a raw init payload into a canonical key map. It
// accepts the legacy bare-identifier shorthand or a structured object whose
// presentation keys may live at the top level or under a nested "options"
// map.
func NormalizeInit(raw any) map[string]any {
	out := map[string]any{}

	switch v := raw.(type) {
	case string:
		out["id"] = v
		return out
	case map[string]any:
		var options map[string]any
		for key, value := range v {
			if key == "options" {
				options, _ = value.(map[string]any)
				continue
			}
			out[canonicalKey(key)] = value
		}
		for key, value := range options {
			canon := canonicalKey(key)
			// The nested baseURL historically wins over a top-level
			// one; every other top-level key takes precedence.
			if _, exists := out[canon]; !exists || canon == "baseURL" {
				out[canon] = value
			}
		}
		return out
	default:
		return out
	}
}

// CanonicalizeKeys rewrites a server-supplied partial config into canonical
// key names without touching values.
func CanonicalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[canonicalKey(key)] = value
	}
	return out
}

func canonicalKey(key string) string {
	if canon, ok := keyAliases[key]; ok {
		return canon
	}
	return key
}

// MergeServerConfig applies local-wins-on-key-presence semantics over the
// top-level key maps. Deliberately shallow: nested values are adopted or
// kept whole so precedence stays predictable.
func MergeServerConfig(local, server map[string]any) map[string]any {
	merged := make(map[string]any, len(local)+len(server))
	for key, value := range CanonicalizeKeys(server) {
		merged[key] = value
	}
	for key, value := range local {
		merged[key] = value
	}
	return merged
}

// ParseInit resolves a raw init payload into a fully-defaulted WidgetConfig.
func ParseInit(raw any) domain.WidgetConfig {
	return Finalize(NormalizeInit(raw))
}

// Finalize applies the default table to a canonical key map. No field of the
// result is ever left empty besides the optional API key, avatar, font and
// lead config.
func Finalize(m map[string]any) domain.WidgetConfig {
	return domain.WidgetConfig{
		BotID:   stringValue(m["id"]),
		APIKey:  stringValue(m["apiKey"]),
		BaseURL: stringValue(m["baseURL"]),

		Position:     stringOr(m["position"], config.DefaultPosition),
		Color:        stringOr(m["color"], config.DefaultColor),
		Greeting:     stringOr(m["greeting"], config.DefaultGreeting),
		BotName:      stringOr(m["botName"], config.DefaultBotName),
		ShowBranding: boolOr(m["showBranding"], true),
		Width:        intOr(m["width"], config.DefaultWidth),
		Height:       intOr(m["height"], config.DefaultHeight),
		AvatarURL:    stringValue(m["avatarURL"]),
		FontFamily:   stringValue(m["fontFamily"]),

		Lead: NormalizeLeadConfig(m["leadConfig"]),
	}
}

// NormalizeLeadConfig resolves a raw lead-capture config of either
// generation into the canonical policy. Returns nil when lead capture is not
// configured at all.
func NormalizeLeadConfig(raw any) *domain.LeadCaptureConfig {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	lead := &domain.LeadCaptureConfig{
		Enabled:      boolOr(m["enabled"], false),
		Timing:       stringOr(timingValue(m), domain.LeadTimingAfterMessages),
		MessageCount: intOr(firstPresent(m, "messageCount", "message_count"), config.DefaultLeadMessageCount),
		Fields:       NormalizeLeadFields(m["fields"], firstPresent(m, "custom_fields", "customFields")),
		Title:        stringOr(m["title"], config.DefaultLeadTitle),
		Description:  stringOr(m["description"], config.DefaultLeadDescription),
		SubmitText:   stringOr(firstPresent(m, "submitText", "submit_text"), config.DefaultLeadSubmitText),
	}

	// The two config generations disagree on the skip default: the newer
	// snake_case key is taken verbatim when present, the older camelCase
	// shape allows skipping unless explicitly disabled.
	if v, ok := m["allow_skip"]; ok {
		lead.AllowSkip = boolOr(v, false)
	} else {
		lead.AllowSkip = boolOr(m["allowSkip"], true)
	}

	if privacy, ok := m["privacy"].(map[string]any); ok {
		lead.Consent = domain.ConsentConfig{
			Require: boolOr(privacy["require_consent"], false),
			Message: stringOr(privacy["consent_message"], config.DefaultConsentMessage),
		}
	} else if consent, ok := m["consent"].(map[string]any); ok {
		lead.Consent = domain.ConsentConfig{
			Require: boolOr(consent["require"], false),
			Message: stringOr(consent["message"], config.DefaultConsentMessage),
		}
	} else {
		lead.Consent = domain.ConsentConfig{Message: config.DefaultConsentMessage}
	}

	return lead
}

func timingValue(m map[string]any) any {
	return firstPresent(m, "timing", "lead_timing")
}

// NormalizeLeadFields translates both historical field shapes into one
// canonical ordered sequence: either a flat array of field descriptors, or
// an object keyed by standard field name with required/optional/hidden
// visibility plus a separate custom-fields array. The result is never empty.
func NormalizeLeadFields(fieldsRaw any, customRaw any) []domain.FieldSpec {
	var fields []domain.FieldSpec

	switch v := fieldsRaw.(type) {
	case []any:
		// Legacy flat array of field descriptors.
		for _, item := range v {
			fm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			fields = append(fields, fieldFromMap(fm))
		}

	case map[string]any:
		// Standard fields with visibility tri-state. Order is fixed:
		// email, name, phone, then custom fields.
		standard := []struct {
			name        string
			label       string
			fieldType   string
			placeholder string
		}{
			{"email", "Email", "email", "Enter your email"},
			{"name", "Name", "text", "Enter your name"},
			{"phone", "Phone", "tel", "Enter your phone number"},
		}
		for _, std := range standard {
			visibility := stringValue(v[std.name])
			if visibility == domain.FieldHidden {
				continue
			}
			fields = append(fields, domain.FieldSpec{
				Name:        std.name,
				Label:       std.label,
				Type:        std.fieldType,
				Required:    visibility == domain.FieldRequired,
				Placeholder: std.placeholder,
			})
		}
	}

	if custom, ok := customRaw.([]any); ok {
		for _, item := range custom {
			fm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			fields = append(fields, fieldFromMap(fm))
		}
	}

	if len(fields) == 0 {
		fields = []domain.FieldSpec{{
			Name:        "email",
			Label:       "Email",
			Type:        "email",
			Required:    true,
			Placeholder: "Enter your email",
		}}
	}

	return fields
}

func fieldFromMap(fm map[string]any) domain.FieldSpec {
	fieldType := stringOr(fm["type"], "text")
	if fieldType == "phone" {
		fieldType = "tel"
	}

	var options []string
	if raw, ok := fm["options"].([]any); ok {
		for _, opt := range raw {
			if s := stringValue(opt); s != "" {
				options = append(options, s)
			}
		}
	}

	return domain.FieldSpec{
		Name:        stringValue(fm["name"]),
		Label:       stringValue(fm["label"]),
		Type:        fieldType,
		Required:    boolOr(fm["required"], false),
		Placeholder: stringValue(fm["placeholder"]),
		Options:     options,
	}
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// intOr tolerates the float64 that JSON decoding produces for numbers.
func intOr(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case float64:
		if n > 0 {
			return int(n)
		}
	}
	return fallback
}
