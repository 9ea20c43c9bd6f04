package service

import (
	"testing"

	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInit_StringShorthand(t *testing.T) {
	cfg := ParseInit("bot-123")

	assert.Equal(t, "bot-123", cfg.BotID)
	assert.Equal(t, config.DefaultPosition, cfg.Position)
	assert.Equal(t, config.DefaultColor, cfg.Color)
	assert.Equal(t, config.DefaultGreeting, cfg.Greeting)
	assert.Equal(t, config.DefaultBotName, cfg.BotName)
	assert.True(t, cfg.ShowBranding)
	assert.Equal(t, config.DefaultWidth, cfg.Width)
	assert.Equal(t, config.DefaultHeight, cfg.Height)
	assert.Nil(t, cfg.Lead)
}

func TestParseInit_StructuredObject(t *testing.T) {
	cfg := ParseInit(map[string]any{
		"id":     "bot-1",
		"apiKey": "key-1",
		"options": map[string]any{
			"baseURL":      "https://api.example.com",
			"position":     "bottom-left",
			"color":        "#111111",
			"botName":      "Helper",
			"showBranding": false,
			"width":        float64(320),
			"height":       float64(500),
		},
	})

	assert.Equal(t, "bot-1", cfg.BotID)
	assert.Equal(t, "key-1", cfg.APIKey)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "bottom-left", cfg.Position)
	assert.Equal(t, "#111111", cfg.Color)
	assert.Equal(t, "Helper", cfg.BotName)
	assert.False(t, cfg.ShowBranding)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestParseInit_LegacyKeyNames(t *testing.T) {
	cfg := ParseInit(map[string]any{
		"botId":           "bot-legacy",
		"api_key":         "k",
		"base_url":        "https://api.example.com",
		"bot_name":        "Legacy Bot",
		"welcome_message": "Hey!",
		"primary_color":   "#abcdef",
		"show_branding":   false,
	})

	assert.Equal(t, "bot-legacy", cfg.BotID)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, "Legacy Bot", cfg.BotName)
	assert.Equal(t, "Hey!", cfg.Greeting)
	assert.Equal(t, "#abcdef", cfg.Color)
	assert.False(t, cfg.ShowBranding)
}

func TestParseInit_OptionsPrecedence(t *testing.T) {
	// Top-level keys win over nested options, except baseURL where the
	// nested value historically wins.
	cfg := ParseInit(map[string]any{
		"id":      "bot-1",
		"apiKey":  "top-key",
		"baseURL": "https://top.example.com",
		"options": map[string]any{
			"apiKey":  "nested-key",
			"baseURL": "https://nested.example.com",
		},
	})

	assert.Equal(t, "top-key", cfg.APIKey)
	assert.Equal(t, "https://nested.example.com", cfg.BaseURL)
}

func TestParseInit_DefaultsAlwaysPopulated(t *testing.T) {
	payloads := []any{
		"bot-1",
		map[string]any{"id": "bot-2"},
		map[string]any{"botId": "bot-3", "options": map[string]any{}},
		map[string]any{"bot_id": "bot-4", "bot_name": "N"},
		nil,
	}

	for _, payload := range payloads {
		cfg := ParseInit(payload)
		assert.NotEmpty(t, cfg.Position)
		assert.NotEmpty(t, cfg.Color)
		assert.NotEmpty(t, cfg.Greeting)
		assert.NotEmpty(t, cfg.BotName)
		assert.Positive(t, cfg.Width)
		assert.Positive(t, cfg.Height)
	}
}

func TestMergeServerConfig_LocalWins(t *testing.T) {
	merged := MergeServerConfig(
		map[string]any{"color": "#111"},
		map[string]any{"color": "#222", "botName": "X"},
	)

	assert.Equal(t, "#111", merged["color"])
	assert.Equal(t, "X", merged["botName"])
}

func TestMergeServerConfig_CanonicalizesServerKeys(t *testing.T) {
	merged := MergeServerConfig(
		map[string]any{"color": "#111"},
		map[string]any{"primary_color": "#222", "bot_name": "Server Bot"},
	)

	assert.Equal(t, "#111", merged["color"])
	assert.Equal(t, "Server Bot", merged["botName"])
}

func TestMergeServerConfig_ShallowMerge(t *testing.T) {
	localLead := map[string]any{"enabled": true}
	merged := MergeServerConfig(
		map[string]any{"leadConfig": localLead},
		map[string]any{"leadConfig": map[string]any{"enabled": false, "timing": "before_chat"}},
	)

	// The nested map is kept whole, not merged recursively.
	assert.Equal(t, localLead, merged["leadConfig"])
}

func TestNormalizeLeadFields_LegacyArray(t *testing.T) {
	fields := NormalizeLeadFields([]any{
		map[string]any{"name": "email", "label": "Email", "type": "email", "required": true},
		map[string]any{"name": "mobile", "label": "Mobile", "type": "phone", "required": false},
	}, nil)

	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Type)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "tel", fields[1].Type, "legacy phone type normalizes to tel")
}

func TestNormalizeLeadFields_VisibilityObject(t *testing.T) {
	fields := NormalizeLeadFields(map[string]any{
		"email": "required",
		"name":  "optional",
		"phone": "hidden",
	}, []any{
		map[string]any{"name": "company", "label": "Company", "type": "text", "required": true},
		map[string]any{"name": "role", "label": "Role", "type": "select", "options": []any{"Dev", "Ops"}},
	})

	require.Len(t, fields, 4)
	assert.Equal(t, "email", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "name", fields[1].Name)
	assert.False(t, fields[1].Required)
	assert.Equal(t, "company", fields[2].Name)
	assert.Equal(t, "role", fields[3].Name)
	assert.Equal(t, []string{"Dev", "Ops"}, fields[3].Options)
}

func TestNormalizeLeadFields_NeverEmpty(t *testing.T) {
	cases := map[string]struct {
		fieldsRaw any
		customRaw any
	}{
		"nil input":         {nil, nil},
		"empty array":       {[]any{}, nil},
		"all hidden":        {map[string]any{"email": "hidden", "name": "hidden", "phone": "hidden"}, nil},
		"all hidden custom": {map[string]any{"email": "hidden", "name": "hidden", "phone": "hidden"}, []any{}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fields := NormalizeLeadFields(tc.fieldsRaw, tc.customRaw)
			require.Len(t, fields, 1)
			assert.Equal(t, "email", fields[0].Name)
			assert.Equal(t, "email", fields[0].Type)
			assert.True(t, fields[0].Required)
		})
	}
}

func TestNormalizeLeadConfig_AllowSkipGenerations(t *testing.T) {
	cases := map[string]struct {
		raw  map[string]any
		want bool
	}{
		"snake case false":       {map[string]any{"allow_skip": false}, false},
		"snake case true":        {map[string]any{"allow_skip": true}, true},
		"camel case false":       {map[string]any{"allowSkip": false}, false},
		"camel case unspecified": {map[string]any{}, true},
		"snake wins over camel":  {map[string]any{"allow_skip": true, "allowSkip": false}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			lead := NormalizeLeadConfig(tc.raw)
			require.NotNil(t, lead)
			assert.Equal(t, tc.want, lead.AllowSkip)
		})
	}
}

func TestNormalizeLeadConfig_ConsentShapes(t *testing.T) {
	lead := NormalizeLeadConfig(map[string]any{
		"privacy": map[string]any{
			"require_consent": true,
			"consent_message": "Please agree.",
		},
	})
	require.NotNil(t, lead)
	assert.True(t, lead.Consent.Require)
	assert.Equal(t, "Please agree.", lead.Consent.Message)

	lead = NormalizeLeadConfig(map[string]any{
		"consent": map[string]any{"require": true},
	})
	require.NotNil(t, lead)
	assert.True(t, lead.Consent.Require)
	assert.Equal(t, config.DefaultConsentMessage, lead.Consent.Message)

	lead = NormalizeLeadConfig(map[string]any{})
	require.NotNil(t, lead)
	assert.False(t, lead.Consent.Require)
}

func TestNormalizeLeadConfig_Defaults(t *testing.T) {
	lead := NormalizeLeadConfig(map[string]any{"enabled": true})

	require.NotNil(t, lead)
	assert.True(t, lead.Enabled)
	assert.Equal(t, domain.LeadTimingAfterMessages, lead.Timing)
	assert.Equal(t, config.DefaultLeadMessageCount, lead.MessageCount)
	assert.NotEmpty(t, lead.Fields)
	assert.Equal(t, config.DefaultLeadTitle, lead.Title)
	assert.Equal(t, config.DefaultLeadSubmitText, lead.SubmitText)
}

func TestNormalizeLeadConfig_NotConfigured(t *testing.T) {
	assert.Nil(t, NormalizeLeadConfig(nil))
	assert.Nil(t, NormalizeLeadConfig("oops"))
}
