package genai

import "errors"

// ErrRateLimited is returned on HTTP 429 from the generative API. It
// is surfaced to the operator as its own condition, distinct from
// other failures.
var ErrRateLimited = errors.New("genai: rate limited, try again shortly")

// ErrMalformedReply is returned when the model's reply does not carry
// the JSON payload an operation requires. Never swallowed: the
// operator is told the reply was unusable.
var ErrMalformedReply = errors.New("genai: could not parse model reply")
