package output

import (
	"fmt"
	"strings"
)

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KeyValue renders a single aligned " label value" line.
func KeyValue(label, value string) string {
	return fmt.Sprintf(" %s %s", StyleLabel.Render(label), StyleBold.Render(value))
}

// List renders items as an indented bullet list, showing at most max items
// followed by a muted "+N more" line. max <= 0 shows everything. An empty
// slice renders the muted placeholder instead.
func List(items []string, max int, placeholder string) string {
	if len(items) == 0 {
		return "   " + StyleMuted.Render(placeholder)
	}
	shown := items
	if max > 0 && len(items) > max {
		shown = items[:max]
	}
	var sb strings.Builder
	for i, it := range shown {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("   • ")
		sb.WriteString(it)
	}
	if len(shown) < len(items) {
		sb.WriteString("\n   ")
		sb.WriteString(StyleMuted.Render(fmt.Sprintf("+%d more", len(items)-len(shown))))
	}
	return sb.String()
}

// Indent prefixes every line of text with n spaces.
func Indent(text string, n int) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
