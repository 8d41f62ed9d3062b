// ABOUTME: Markdown stripping for plain-text and PDF output
// ABOUTME: Headings, emphasis, links, code spans and list markers become plain text
package export

import (
	"regexp"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+`)
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	italicRe   = regexp.MustCompile(`(^|[^*\w])\*([^*\s][^*]*?)\*|(^|\W)_([^_\s][^_]*?)_`)
	codeRe     = regexp.MustCompile("`([^`]*)`")
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	checkboxRe = regexp.MustCompile(`^[-*+]\s+\[( |x|X)\]\s+`)
	bulletRe   = regexp.MustCompile(`^[-*+]\s+`)
	ruleRe     = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)
)

// CleanMarkdown strips markdown syntax line by line and drops horizontal rules.
func CleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isRule(trimmed) {
			continue
		}
		out = append(out, cleanLine(trimmed))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func cleanLine(line string) string {
	line = headingRe.ReplaceAllString(line, "")

	if m := checkboxRe.FindStringSubmatch(line); m != nil {
		box := "[ ] "
		if m[1] != " " {
			box = "[x] "
		}
		line = box + line[len(m[0]):]
	} else if bulletRe.MatchString(line) {
		line = bulletRe.ReplaceAllString(line, "• ")
	}

	line = linkRe.ReplaceAllString(line, "$1 ($2)")
	line = codeRe.ReplaceAllString(line, "$1")
	line = boldRe.ReplaceAllString(line, "$1$2")
	line = italicRe.ReplaceAllString(line, "$1$2$3$4")
	return line
}

func headingLevel(line string) int {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

func isRule(line string) bool {
	return ruleRe.MatchString(line)
}
