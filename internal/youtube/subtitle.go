package youtube

import (
	"html"
	"regexp"
	"strings"
)

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// Flatten strips subtitle markup and joins the remaining text fragments with
// single spaces.
func Flatten(format, data string) string {
	switch strings.ToLower(format) {
	case "vtt":
		return flattenVTT(data)
	default:
		return flattenMarkup(data)
	}
}

// flattenMarkup handles tag-based formats (srv1, ttml): drop every tag, decode
// entities, collapse whitespace.
func flattenMarkup(data string) string {
	stripped := tagRegex.ReplaceAllString(data, " ")
	stripped = html.UnescapeString(stripped)
	return strings.Join(strings.Fields(stripped), " ")
}

func flattenVTT(data string) string {
	var parts []string
	var last string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "WEBVTT" {
			continue
		}
		if strings.HasPrefix(line, "Kind:") || strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if isCueIdentifier(line) {
			continue
		}
		text := tagRegex.ReplaceAllString(line, "")
		text = strings.TrimSpace(html.UnescapeString(text))
		if text == "" || text == last {
			// rolling captions repeat the previous line
			continue
		}
		last = text
		parts = append(parts, strings.Join(strings.Fields(text), " "))
	}
	return strings.Join(parts, " ")
}

func isCueIdentifier(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(line) > 0
}
