package responses

// RequestIDHeader is set by the request id middleware and echoed into error
// bodies so an operator can quote it.
const RequestIDHeader = "X-Request-Id"

// SuccessEnvelope wraps every JSON payload under "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the public shape of a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
