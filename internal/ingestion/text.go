// Package ingestion turns raw attachment content into clean text suitable for
// analysis prompts.
package ingestion

import (
	"regexp"
	"strings"
)

var multiBlankLines = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes text content while preserving structure: line endings,
// trailing whitespace, and runs of blank lines.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = multiBlankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	// Keep markdown headings and bullets flush left
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
		return trimmed
	}
	return line
}

// cleanWhitespace collapses intra-line whitespace in extracted HTML text.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		cleaned = append(cleaned, line)
	}
	return CleanText(strings.Join(cleaned, "\n"))
}
