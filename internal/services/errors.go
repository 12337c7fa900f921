package services

import "net/http"

// Error codes surfaced to callers.
const (
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeInvalidCard    = "INVALID_CARD"
	CodeExpiredCard    = "EXPIRED_CARD"
	CodeInvalidVPA     = "INVALID_VPA"
	CodePaymentFailed  = "PAYMENT_FAILED"
)

// GatewayError is the structured error returned to API callers as
// {"error":{"code":..., "description":...}}.
type GatewayError struct {
	Code        string
	Description string
	Status      int
}

func (e *GatewayError) Error() string {
	return e.Code + ": " + e.Description
}

var (
	ErrAuthentication = &GatewayError{Code: CodeAuthentication, Description: "Invalid API credentials", Status: http.StatusUnauthorized}

	// Not-found covers both unknown IDs and ownership mismatches so a
	// merchant cannot probe for other merchants' records.
	ErrOrderNotFound   = &GatewayError{Code: CodeNotFound, Description: "Order not found", Status: http.StatusNotFound}
	ErrPaymentNotFound = &GatewayError{Code: CodeNotFound, Description: "Payment not found", Status: http.StatusNotFound}
)

func badRequest(code, description string) *GatewayError {
	return &GatewayError{Code: code, Description: description, Status: http.StatusBadRequest}
}
