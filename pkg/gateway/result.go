package gateway

// Result accumulates the negotiation decision across the pipeline stages.
// Fields are first-writer-wins: once a stage has determined a value, later
// stages cannot overwrite it.
type Result struct {
	CType     string
	OrigCType string
	Version   string
}

// SetVersion records the version unless one is already set.
func (r *Result) SetVersion(version string) {
	if r.Version == "" {
		r.Version = version
	}
}

// SetCType records the content type and, alongside it, the pre-negotiation
// original, unless a content type is already set.
func (r *Result) SetCType(ctype, orig string) {
	if r.CType == "" {
		r.CType = ctype
		r.OrigCType = orig
	}
}

// Complete reports whether both the content type and the version have been
// determined, at which point the remaining stages are skipped.
func (r *Result) Complete() bool {
	return r.CType != "" && r.Version != ""
}
