package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK = 200
)

// Stable error codes exposed to clients. Controllers map domain errors to
// exactly one of these; messages may change, codes may not.
const (
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeUnknownGame           = "UNKNOWN_GAME"
	CodeBetNotFound           = "BET_NOT_FOUND"
	CodeBetAlreadyResolved    = "BET_ALREADY_RESOLVED"
	CodeUnsupportedForGame    = "UNSUPPORTED_FOR_GAME"
	CodeFairnessSeedMissing   = "FAIRNESS_SEED_MISSING"
	CodeUnbalancedTransaction = "UNBALANCED_TRANSACTION"
	CodeSeedNotFound          = "SEED_NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeBadRequest            = "BAD_REQUEST"
	CodeInternal              = "INTERNAL"
	CodeDuplicateRequest      = "DUPLICATE_REQUEST"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Code:   CodeInternal,
		Error:  msg,
	}
}

func ErrorCode(code string, msg string, status int) Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return Response{
		Status: status,
		Code:   code,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is below minimum", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is above maximum", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Status: http.StatusBadRequest,
		Code:   CodeBadRequest,
		Error:  strings.Join(errMsgs, ", "),
	}
}
