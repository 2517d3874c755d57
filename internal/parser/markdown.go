package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
)

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTag      = regexp.MustCompile(`<[^>]+>`)
)

// logMarkers open the collapsible chat logs in the page body
var logMarkers = []string{"|PESTERLOG|", "|DIALOGLOG|", "|SPRITELOG|", "|RECAP LOG|", "|SERIOUS LOG|", "|TRKSTRLOG|"}

// ConvertToMarkdown renders a page record as markdown for publishing
func ConvertToMarkdown(number string, rec models.Record) string {
	logger.Debug("Converting page to markdown", map[string]interface{}{
		"page": number,
	})

	var md strings.Builder

	title := rec.Caption
	if title == "" {
		title = number
	}
	md.WriteString(fmt.Sprintf("# %s\n\n", title))

	// Content links
	for _, link := range SplitLinks(rec.Links) {
		name := LinkFilename(link)
		if IsSpecialLink(link) {
			md.WriteString(fmt.Sprintf("- flash: %s\n", name))
			continue
		}
		md.WriteString(fmt.Sprintf("![%s](%s)\n", name, name))
	}
	if rec.Links != "" {
		md.WriteString("\n")
	}

	// Body
	body := lineBreakTag.ReplaceAllString(rec.Body, "\n")
	for _, line := range strings.Split(body, "\n") {
		if mdLine := convertLineToMarkdown(line); mdLine != "" {
			md.WriteString(mdLine + "\n")
		}
	}

	// Next pages
	for _, next := range SplitLinks(rec.Next) {
		md.WriteString(fmt.Sprintf("\n[> %s](./%s.md)", next, next))
	}
	if rec.Next != "" {
		md.WriteString("\n")
	}

	return md.String()
}

// convertLineToMarkdown converts a single body line, dropping markup
func convertLineToMarkdown(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	for _, marker := range logMarkers {
		if strings.HasPrefix(line, marker) {
			return "---"
		}
	}

	line = htmlTag.ReplaceAllString(line, "")

	// Chat lines "JOHN: hi" keep the handle in bold
	if idx := strings.Index(line, ": "); idx > 0 && idx <= 4 && strings.ToUpper(line[:idx]) == line[:idx] {
		return fmt.Sprintf("**%s:** %s", line[:idx], line[idx+2:])
	}

	return line
}
