// Package logx formats access log lines for the serving shell.
package logx

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// ColorEnabled reports whether stdout looks like a terminal that can take
// ANSI colors.
func ColorEnabled() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func ColorizeStatusWith(status int, color bool) string {
	s := fmt.Sprintf("%d", status)
	if !color {
		return s
	}
	switch {
	case status >= 200 && status < 300:
		return "\x1b[1;32m" + s + "\x1b[0m"
	case status >= 300 && status < 400:
		return "\x1b[1;36m" + s + "\x1b[0m"
	case status >= 400 && status < 500:
		return "\x1b[1;33m" + s + "\x1b[0m"
	default:
		return "\x1b[1;31m" + s + "\x1b[0m"
	}
}

// FormatRequestLineWithColor renders one access log line:
//
//	2006/01/02 - 15:04:05 | 200 | 1.2ms | 127.0.0.1 | GET /v1/thing | key=value ...
//
// Extra fields are appended sorted by key; empty values are skipped.
func FormatRequestLineWithColor(
	ts time.Time,
	status int,
	latency time.Duration,
	clientIP string,
	method string,
	path string,
	fields map[string]any,
	color bool,
) string {
	var b strings.Builder
	b.WriteString(ts.Format("2006/01/02 - 15:04:05"))
	b.WriteString(" | ")
	b.WriteString(ColorizeStatusWith(status, color))
	b.WriteString(" | ")
	b.WriteString(latency.String())
	b.WriteString(" | ")
	b.WriteString(strings.TrimSpace(clientIP))
	b.WriteString(" | ")
	b.WriteString(strings.TrimSpace(method))
	b.WriteByte(' ')
	b.WriteString(path)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.TrimSpace(fmt.Sprintf("%v", fields[k]))
		if v == "" || v == "<nil>" {
			continue
		}
		b.WriteString(" | ")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
