package mediatype

import (
	"strconv"
	"strings"
)

// matchMask reports whether ctype falls inside the media-range mask. Masks
// without wildcards require exact equality; "*/*" matches anything; "type/*"
// matches on the major type. Any other wildcard form never matches.
func matchMask(mask, ctype string) bool {
	if !strings.Contains(mask, "*") {
		return mask == ctype
	}
	if mask == "*/*" {
		return true
	}
	if !strings.HasSuffix(mask, "/*") {
		return false
	}
	return strings.TrimSuffix(mask, "/*") == strings.SplitN(ctype, "/", 2)[0]
}

type acceptCandidate struct {
	mask      string
	params    Params
	quality   float64
	wildcards int
}

// BestMatch picks the entry of allowed that best satisfies the Accept-style
// header value requested, following RFC 2616 §14.1 ranking: higher quality
// wins, ties go to the more specific (fewer-wildcard) mask, remaining ties to
// the earlier allowed entry. A candidate with an unparsable q value is dropped
// from the comparison entirely. The returned Params are those of the winning
// mask with NameKey rewritten to the chosen type. No acceptable entry yields
// ("", {}).
func BestMatch(requested string, allowed []string) (string, Params) {
	candidates := parseAccept(requested)

	// Seeding with q=-1 lets an explicit q=0 range still beat "no match".
	bestCType := ""
	bestParams := Params{}
	bestQ := -1.0
	bestWildcards := strings.Count("*/*", "*")

	for _, ctype := range allowed {
		for _, cand := range candidates {
			if !matchMask(cand.mask, ctype) {
				continue
			}
			if cand.quality < bestQ {
				continue
			}
			if cand.quality == bestQ && cand.wildcards >= bestWildcards {
				continue
			}
			bestCType = ctype
			bestQ = cand.quality
			bestWildcards = cand.wildcards
			bestParams = cand.params.clone()
			bestParams[NameKey] = ctype
		}
	}
	return bestCType, bestParams
}

func parseAccept(requested string) []acceptCandidate {
	entries := QuotedSplit(requested, ',')
	out := make([]acceptCandidate, 0, len(entries))
	for _, entry := range entries {
		mask, params := ParseCType(strings.TrimSpace(entry))
		if mask == "" {
			continue
		}
		quality := 1.0
		if raw, ok := params["q"]; ok {
			s, isStr := raw.(string)
			if !isStr {
				// Bare "q" flag; treat as full preference.
				s = "1"
			}
			q, err := strconv.ParseFloat(s, 64)
			if err != nil {
				// Unparsable quality excludes this range from consideration.
				continue
			}
			quality = q
		}
		out = append(out, acceptCandidate{
			mask:      mask,
			params:    params,
			quality:   quality,
			wildcards: strings.Count(mask, "*"),
		})
	}
	return out
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
