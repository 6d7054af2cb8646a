package mediatype

import "strings"

// QuotedSplit splits s on sep while respecting double-quoted sections.
// Inside quotes a backslash escapes the next character and sep does not
// delimit. A leading sep emits an empty first field and the trailing field is
// always emitted, even when empty. Unterminated quotes are tolerated; the
// remainder is returned as the final field.
func QuotedSplit(s string, sep byte) []string {
	out := make([]string, 0, 4)
	var field strings.Builder
	quoted := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			field.WriteByte(ch)
			escaped = false
		case quoted && ch == '\\':
			field.WriteByte(ch)
			escaped = true
		case ch == '"':
			field.WriteByte(ch)
			quoted = !quoted
		case ch == sep && !quoted:
			out = append(out, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	out = append(out, field.String())
	return out
}

// Unquote strips exactly one leading and one trailing double quote when the
// string both starts and ends with one. A lone quote yields the empty string.
// Escapes are left untouched; permissive clients do not reliably escape.
func Unquote(s string) string {
	if s == "" || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if len(s) <= 2 {
		return ""
	}
	return s[1 : len(s)-1]
}
