// Package mediatype implements the header-parsing primitives the negotiation
// pipeline is built on: a quote-aware tokenizer for comma/semicolon separated
// header values, permissive unquoting, content-type parameter parsing, and an
// RFC 2616 §14.1 style best-match over Accept media ranges.
//
// Parsing is deliberately forgiving. Real clients send malformed parameters,
// unterminated quotes and garbage quality values; every function here degrades
// to a usable value instead of returning an error, so a bad header can never
// take a request down.
package mediatype
