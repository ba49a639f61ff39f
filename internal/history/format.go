package history

import (
	"fmt"
	"strconv"
	"time"
)

// FormatSize renders a byte count as "X.XX MB", or "-" when the size is
// zero or absent.
func FormatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}

// FormatTokens renders a token count with digit grouping ("1,234,567").
func FormatTokens(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// FormatTimestamp renders a backend timestamp for display in local time,
// "-" when absent. A value that does not parse as RFC 3339 passes
// through unchanged.
func FormatTimestamp(s string) string {
	if s == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
