package mediatype

import "strings"

// NameKey is the reserved Params key holding the media-type name itself, so
// rule templates can reference the inbound type as %(_)s.
const NameKey = "_"

// Params holds the parameters parsed from a media-type string. Values are
// either string (name=value parameters) or the boolean true (bare flags).
type Params map[string]any

// String returns the value for key as a string, with ok reporting whether the
// key is present as a string value.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ParseCType parses a Content-Type style value into the media-type name and
// its parameters. The name is also stored under NameKey. A parameter segment
// is split on the first '=' only when that '=' occurs before any quote;
// otherwise the whole segment becomes a bare true flag, which covers both
// valueless parameters and malformed quoting. Empty input yields ("", {}).
func ParseCType(s string) (string, Params) {
	params := Params{}
	if s == "" {
		return "", params
	}
	fields := QuotedSplit(s, ';')
	name := fields[0]
	params[NameKey] = name
	for _, seg := range fields[1:] {
		eq := strings.IndexByte(seg, '=')
		quote := strings.IndexByte(seg, '"')
		if eq >= 0 && (quote < 0 || eq < quote) {
			params[seg[:eq]] = Unquote(seg[eq+1:])
		} else {
			params[seg] = true
		}
	}
	return name, params
}
