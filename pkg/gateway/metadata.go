package gateway

import (
	"context"

	"github.com/verso-proxy/verso/pkg/ruleset"
)

// Gin context keys mirroring the negotiation metadata, for access-log and
// metrics middleware. The authoritative copy travels on the request context
// (see NewContext/FromContext).
const (
	CtxKeyConfig           = "verso.config"
	CtxKeyVersion          = "verso.version"
	CtxKeyResponseType     = "verso.response_type"
	CtxKeyOrigResponseType = "verso.orig_response_type"
	CtxKeyAccept           = "verso.accept"
	CtxKeyRequestType      = "verso.request_type"
	CtxKeyOrigRequestType  = "verso.orig_request_type"
	CtxKeyContentType      = "verso.content_type"
	CtxKeyDispatchError    = "verso.dispatch_error"
)

// VersionHeader carries the selected version to the upstream backend.
const VersionHeader = "X-Verso-Version"

// Metadata is the negotiation decision record attached to every forwarded
// request, independent of whether header rewriting is enabled. Empty strings
// mean the corresponding value was never determined.
type Metadata struct {
	// Config is the introspection snapshot of the active rule tables.
	Config ruleset.Summary
	// Version is the canonical version whose application serves the request;
	// empty when the fallback application was used.
	Version string
	// ResponseType is the negotiated response content type; OrigResponseType
	// is the client-requested type it was mapped from; Accept preserves the
	// raw Accept header before any rewrite.
	ResponseType     string
	OrigResponseType string
	Accept           string
	// RequestType is the negotiated request content type; OrigRequestType is
	// the parsed inbound type name; ContentType preserves the raw header.
	RequestType     string
	OrigRequestType string
	ContentType     string
}

type metadataKey struct{}

// NewContext returns a context carrying the negotiation metadata.
func NewContext(ctx context.Context, m *Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, m)
}

// FromContext retrieves the negotiation metadata attached by the dispatch
// pipeline, if any.
func FromContext(ctx context.Context) (*Metadata, bool) {
	m, ok := ctx.Value(metadataKey{}).(*Metadata)
	return m, ok
}
