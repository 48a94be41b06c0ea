// Package ruleclient talks to the external rule service.
//
// The service exposes two JSON exchanges:
//
//   - POST /evaluate with {rule, data}: evaluate a rule against data
//   - POST /api/create_rule with {rule}: compile a rule to its AST
//
// Both answer with an envelope whose "status" is "success" on success, or
// carries a "message" otherwise.
//
// # Response shapes
//
// The canonical evaluation response is a list of per-datum results:
//
//	{"status": "success", "results": [{"data": {...}, "result": true}]}
//
// Older services answer with a single value instead:
//
//	{"status": "success", "result": true}
//
// [Client.Evaluate] accepts both and always returns the list form; a single
// result is paired with the data that was submitted.
//
// # Errors
//
// Every failure is a *errors.Error from pkg/errors:
//
//   - NETWORK_ERROR / TIMEOUT: the service could not be reached or answered
//     with a non-2xx status and no envelope. The user message is always
//     [errors.MsgTransportFailure]; the cause is kept for logs.
//   - RULE_REJECTED: the service answered with a non-success status. The
//     user message is the service message, verbatim.
//   - INVALID_RESPONSE: the body could not be decoded, or "ast" is missing.
//
// Transport failures are not retried unless [WithRetries] is set.
package ruleclient
