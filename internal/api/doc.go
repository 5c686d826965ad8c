// Package api defines the contracts shared between the gateway and the
// knowledge-retrieval operations it exposes.
//
// The package has no dependencies on other internal packages. The gateway
// (internal/gateway) consumes these types to register and invoke tools; the
// upstream client (internal/sefaria) produces them. Neither side imports the
// other.
//
// # Operation Interface
//
// Every tool is backed by an Operation:
//
//	type Operation func(ctx context.Context, log LogSink, args Args) (Result, error)
//
// The context is cancelled when the calling session goes away. The LogSink is
// bound to the tool name and invocation id by the gateway, so operations log
// without knowing who called them. Args carries the already validated
// arguments of the call, with declared defaults applied.
//
// # Results
//
// Result is a tagged value with exactly one of three shapes:
//
//   - Text: a string returned to the caller unchanged (plain strings or
//     JSON the operation serialized itself)
//   - Structured: any JSON-encodable value, serialized by the normalizer
//   - Binary: raw bytes plus a MIME type, forwarded binary-safe
//
// # Errors
//
// NotFoundError and ConfigError cover registry failures. Operation failures
// are classified into an ErrorKind with KindOf, which inspects wrapped errors
// with errors.As. Error types defined elsewhere participate by implementing
// the Kinded interface.
package api
