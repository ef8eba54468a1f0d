package rendering

import "strings"

// EscapeMarkdown escapes characters that would change meaning in inline
// Markdown: \ ` * _ [ ] < > #
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) + len(text)/4)

	for _, r := range text {
		switch r {
		case '\\', '`', '*', '_', '[', ']', '<', '>', '#':
			result.WriteByte('\\')
		}
		result.WriteRune(r)
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
