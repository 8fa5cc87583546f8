package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnsupportedContentError indicates the attachment's content type cannot be
// converted to text at this layer (e.g. audio recordings without a transcript).
type UnsupportedContentError struct {
	ContentType string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("unsupported content type for text extraction: %s", e.ContentType)
}

// ExtractText converts attachment content to clean text based on content type.
// HTML is reduced to its main body text; plain text and markdown are cleaned
// as-is. Anything else is an extraction failure the caller records on the job.
func ExtractText(content []byte, contentType string) (string, error) {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return ExtractMainText(string(content))
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		mediaType == "",
		mediaType == "application/octet-stream" && looksLikeText(content):
		return CleanText(string(content)), nil
	default:
		return "", &UnsupportedContentError{ContentType: contentType}
	}
}

// ExtractMainText parses HTML and returns the main body text with navigation,
// scripts, and other noise removed.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	main := doc.Find("main, article, [role=main]")
	var text string
	if main.Length() > 0 {
		text = main.First().Text()
	} else {
		text = doc.Find("body").Text()
	}

	return cleanWhitespace(text), nil
}

// looksLikeText reports whether content is plausibly UTF-8 text: no NUL bytes
// in the first chunk.
func looksLikeText(content []byte) bool {
	limit := len(content)
	if limit > 512 {
		limit = 512
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return false
		}
	}
	return true
}
