// Package sefaria is the client of the Sefaria HTTP API and of the Sefaria
// AI service. It backs every tool the server exposes.
//
// Responses are trimmed to the fields a language model needs: text
// versions lose their bulky metadata, link lists keep five fields per link,
// topics keep at most ten links and ten references.
//
// Failures are typed. An *UpstreamError carries the HTTP status or the
// transport error, a *DecodeError a malformed body; both report an
// api.ErrorKind for metrics.
package sefaria
