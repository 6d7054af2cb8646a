// Package typerule implements the small rule-evaluation language that maps the
// parameters of an inbound content type onto an outbound content type, an API
// version and named parameters. Rules are parsed once at configuration load
// from a compact `tag:"value"` text form and evaluated per request against the
// parsed media-type parameters.
package typerule

import (
	"log"
	"strings"

	"github.com/verso-proxy/verso/pkg/mediatype"
)

// TypeRule maps inbound media-type parameters to an outbound content type,
// version and named parameters. Template fields use the %(name)s placeholder
// syntax; an empty template means the field is unset.
type TypeRule struct {
	CType   string
	Version string
	Params  map[string]string
}

// Outcome is the result of applying a TypeRule. Empty string means the field
// is undefined, either because its template was unset or because the template
// referenced a parameter the request did not carry. Each field degrades
// independently.
type Outcome struct {
	CType   string
	Version string
	Params  map[string]string
}

// Apply evaluates the rule against the inbound parameters. An unset CType
// template falls back to the inbound type name (the reserved "_" parameter);
// an unset Version template yields no version.
func (r TypeRule) Apply(params mediatype.Params) Outcome {
	var out Outcome
	if r.CType == "" {
		if name, ok := params.String(mediatype.NameKey); ok {
			out.CType = name
		}
	} else if v, ok := Expand(r.CType, params); ok {
		out.CType = v
	}
	if r.Version != "" {
		if v, ok := Expand(r.Version, params); ok {
			out.Version = v
		}
	}
	if len(r.Params) > 0 {
		out.Params = make(map[string]string, len(r.Params))
		for name, tmpl := range r.Params {
			if v, ok := Expand(tmpl, params); ok {
				out.Params[name] = v
			}
		}
	}
	return out
}

// Expand resolves %(name)s placeholders in tmpl against params. It returns
// ok=false when any referenced key is absent; a missing key never produces a
// partial value. Text outside placeholders, including stray '%' characters,
// passes through verbatim; "%%" is a literal percent sign.
func Expand(tmpl string, params mediatype.Params) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(tmpl); {
		ch := tmpl[i]
		if ch != '%' {
			b.WriteByte(ch)
			i++
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '%' {
			b.WriteByte('%')
			i += 2
			continue
		}
		if i+1 >= len(tmpl) || tmpl[i+1] != '(' {
			b.WriteByte('%')
			i++
			continue
		}
		end := strings.Index(tmpl[i+2:], ")s")
		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		key := tmpl[i+2 : i+2+end]
		v, ok := params[key]
		if !ok {
			return "", false
		}
		switch val := v.(type) {
		case string:
			b.WriteString(val)
		case bool:
			if val {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		}
		i += 2 + end + 2
	}
	return b.String(), true
}

// Parse builds a TypeRule from its load-time text form: whitespace-separated
// tokens of the shape tag:"value" with tag one of type, version or param:NAME.
// Malformed or unknown tokens are logged against the owning content type and
// skipped; a duplicate tag is logged and the last value wins. Parse never
// fails; the worst input yields an empty rule.
func Parse(logger *log.Logger, ctype, text string) TypeRule {
	var (
		fields = map[string]string{}
		params = map[string]string{}
	)
	for _, token := range strings.Fields(text) {
		tag, rawVal, found := strings.Cut(token, ":")
		if !found || rawVal == "" {
			logger.Printf("%s: invalid type token %q", ctype, token)
			continue
		}
		if tag == "param" {
			name, quoted, ok := strings.Cut(rawVal, "=")
			if !ok || name == "" {
				logger.Printf("%s: invalid type token %q", ctype, token)
				continue
			}
			val, ok := unwrapQuoted(quoted)
			if !ok {
				logger.Printf("%s: invalid parameter value %q for parameter %q", ctype, quoted, name)
				continue
			}
			if _, dup := params[name]; dup {
				logger.Printf("%s: duplicate value for parameter %q", ctype, name)
			}
			params[name] = val
			continue
		}
		if tag != "type" && tag != "version" {
			logger.Printf("%s: unrecognized token type %q", ctype, tag)
			continue
		}
		val, ok := unwrapQuoted(rawVal)
		if !ok {
			logger.Printf("%s: unrecognized token value %q", ctype, rawVal)
			continue
		}
		if _, dup := fields[tag]; dup {
			logger.Printf("%s: duplicate value for token type %q", ctype, tag)
		}
		fields[tag] = val
	}
	return TypeRule{
		CType:   fields["type"],
		Version: fields["version"],
		Params:  params,
	}
}

// unwrapQuoted strips the surrounding quotes from a rule-text value. Values
// must be fully quoted with matching single or double quotes.
func unwrapQuoted(s string) (string, bool) {
	if len(s) <= 2 {
		return "", false
	}
	if (s[0] != '"' && s[0] != '\'') || s[0] != s[len(s)-1] {
		return "", false
	}
	return s[1 : len(s)-1], true
}
