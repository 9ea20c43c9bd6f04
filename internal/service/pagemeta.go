package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/privexbot/widget/internal/domain"
)

// BuildPageMetadata assembles the page context attached to chat messages and
// lead submissions. When the host supplies a document snapshot, title and
// description are parsed out of it.
func BuildPageMetadata(host domain.HostInfo) domain.PageMetadata {
	meta := domain.PageMetadata{
		URL:       host.URL,
		Referrer:  host.Referrer,
		UserAgent: host.UserAgent,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if host.PageHTML != "" {
		title, description, canonical := extractPageMeta(host.PageHTML)
		meta.Title = title
		meta.Description = description
		meta.Canonical = canonical
	}

	return meta
}

func extractPageMeta(html string) (title, description, canonical string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Debug("parse page html", "error", err)
		return "", "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && title == "" {
		title = strings.TrimSpace(og)
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		description = strings.TrimSpace(desc)
	} else if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		description = strings.TrimSpace(og)
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		canonical = strings.TrimSpace(href)
	}

	return title, description, canonical
}
