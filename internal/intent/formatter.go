package intent

import "time"

// invalidEnvelopeMessage replaces the data of structurally incomplete
// envelopes during normalization.
const invalidEnvelopeMessage = "Invalid response format"

// Normalize maps any envelope into the one public shape. Structurally
// incomplete envelopes (unknown status, zero timestamp) are replaced by a
// fixed failure envelope rather than passed through. Normalizing an
// already-normalized envelope is a no-op, so the mapping is idempotent.
func Normalize(env Envelope) Envelope {
	switch env.Status {
	case StatusSuccess, StatusFailure, StatusError:
	default:
		return Envelope{
			Request:   env.Request,
			Status:    StatusFailure,
			Data:      invalidEnvelopeMessage,
			Timestamp: time.Now(),
		}
	}
	if env.Timestamp.IsZero() {
		return Envelope{
			Request:   env.Request,
			Status:    StatusFailure,
			Data:      invalidEnvelopeMessage,
			Timestamp: time.Now(),
		}
	}
	return env
}

// Format renders a normalized envelope as the response handed to the
// web/voice layer. Non-success envelopes still render as plain statements
// carrying the failure text; no error ever crosses this boundary.
func Format(env Envelope) PublicResponse {
	env = Normalize(env)
	return PublicResponse{
		Type:     ResponseStatement,
		Response: env.Data,
	}
}
