package utils

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateString shortens s to maxLen terminal columns, ending with an ellipsis when cut.
// Wide characters such as CJK count as two columns.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// PadString truncates or right-pads s to exactly width terminal columns.
func PadString(s string, width int, padChar rune) string {
	s = TruncateString(s, width)
	if w := runewidth.StringWidth(s); w < width {
		s += strings.Repeat(string(padChar), width-w)
	}
	return s
}

// FormatCount renders "1 contact", "3 contacts".
func FormatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// MaskSecret hides all but the last four characters of a credential.
func MaskSecret(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
