package ruleset

import "sort"

// Summary is a read-only view of the loaded tables, exposed to downstream
// handlers for introspection. The pipeline itself never consults it.
type Summary struct {
	Versions map[string][]string       `json:"versions"`
	Aliases  map[string]string         `json:"aliases"`
	Types    map[string]TypeDescriptor `json:"types"`
}

// TypeDescriptor describes one configured content type: its name, the raw
// parameter templates of its rule, and the path suffix selecting it, if any.
type TypeDescriptor struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
	Suffix string            `json:"suffix,omitempty"`
}

// Summary returns the introspection snapshot derived at load time.
func (r *Rules) Summary() Summary { return r.summary }

func buildSummary(r *Rules) Summary {
	s := Summary{
		Versions: map[string][]string{},
		Aliases:  map[string]string{},
		Types:    map[string]TypeDescriptor{},
	}

	for version := range r.Versions {
		s.Versions[version] = []string{}
	}
	for _, m := range r.URIs {
		s.Versions[m.Version] = append(s.Versions[m.Version], m.Prefix)
	}
	for version := range s.Versions {
		sort.Strings(s.Versions[version])
	}

	for alias, canonical := range r.Aliases {
		s.Aliases[alias] = canonical
	}

	suffixes := make([]string, 0, len(r.Formats))
	for suffix := range r.Formats {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)

	for name, rule := range r.Types {
		desc := TypeDescriptor{Name: name, Params: rule.Params}
		if desc.Params == nil {
			desc.Params = map[string]string{}
		}
		for _, suffix := range suffixes {
			if r.Formats[suffix] == name {
				desc.Suffix = suffix
				break
			}
		}
		s.Types[name] = desc
	}
	return s
}
