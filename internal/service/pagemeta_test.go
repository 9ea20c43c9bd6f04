package service

import (
	"testing"
	"time"

	"github.com/privexbot/widget/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPageMetadata(t *testing.T) {
	host := domain.HostInfo{
		URL:       "https://example.com/pricing",
		Referrer:  "https://google.com",
		UserAgent: "test-agent",
		PageHTML: `<html><head>
			<title>Pricing | Example</title>
			<meta name="description" content="Plans and pricing.">
			<link rel="canonical" href="https://example.com/pricing/">
		</head><body></body></html>`,
	}

	meta := BuildPageMetadata(host)

	assert.Equal(t, "https://example.com/pricing", meta.URL)
	assert.Equal(t, "https://google.com", meta.Referrer)
	assert.Equal(t, "test-agent", meta.UserAgent)
	assert.Equal(t, "Pricing | Example", meta.Title)
	assert.Equal(t, "Plans and pricing.", meta.Description)
	assert.Equal(t, "https://example.com/pricing/", meta.Canonical)

	ts, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
}

func TestBuildPageMetadata_NoSnapshot(t *testing.T) {
	meta := BuildPageMetadata(domain.HostInfo{URL: "https://example.com"})

	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Description)
	assert.NotEmpty(t, meta.Timestamp)
}

func TestExtractPageMeta_OpenGraphFallbacks(t *testing.T) {
	title, description, _ := extractPageMeta(`<html><head>
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG description.">
	</head></html>`)

	assert.Equal(t, "OG Title", title)
	assert.Equal(t, "OG description.", description)
}

func TestExtractPageMeta_TitleWinsOverOpenGraph(t *testing.T) {
	title, _, _ := extractPageMeta(`<html><head>
		<title>Document Title</title>
		<meta property="og:title" content="OG Title">
	</head></html>`)

	assert.Equal(t, "Document Title", title)
}

func TestExtractPageMeta_Empty(t *testing.T) {
	title, description, canonical := extractPageMeta("<html><body>plain</body></html>")
	assert.Empty(t, title)
	assert.Empty(t, description)
	assert.Empty(t, canonical)
}
