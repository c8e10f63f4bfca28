package httpdto

import "net/http"

const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
)

// Response is the envelope of every JSON body returned under /v1.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// ErrorResponseFor maps err onto its status and envelope. Messages of
// unclassified failures are not exposed to clients.
func ErrorResponseFor(err error) (int, Response[any]) {
	status, code := ErrorStatus(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = http.StatusText(status)
	}
	return status, NewErrorResponse(msg, code)
}
