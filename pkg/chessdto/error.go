package chessdto

import "net/http"

// Error codes shared by the server and its clients.
const (
	CodeIllegalMove      = "illegal_move"
	CodeGameOver         = "game_over"
	CodeNothingToUndo    = "nothing_to_undo"
	CodeInvalidPromotion = "invalid_promotion"
	CodeInvalidSquare    = "invalid_square"
	CodeNotFound         = "not_found"
	CodeBadRequest       = "bad_request"
	CodeConflict         = "conflict"
	CodeInvariant        = "invariant_violation"
	CodeInternal         = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}

// HTTPStatus maps the code onto a response status.
func (e DomainError) HTTPStatus() int {
	switch e.Code {
	case CodeIllegalMove, CodeInvalidPromotion:
		return http.StatusUnprocessableEntity
	case CodeGameOver, CodeNothingToUndo, CodeConflict:
		return http.StatusConflict
	case CodeInvalidSquare, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
