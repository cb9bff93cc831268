package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeMissingCredentials Code = "MISSING_CREDENTIALS"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Gift-sniper specific error codes
const (
	// Session / authentication
	CodeGatewayConnectionFailed Code = "GATEWAY_CONNECTION_FAILED"
	CodeAuthRequired            Code = "AUTH_REQUIRED"
	CodeSessionClosed           Code = "SESSION_CLOSED"

	// Catalog / balance
	CodeCatalogFetchFailed Code = "CATALOG_FETCH_FAILED"
	CodeBalanceFetchFailed Code = "BALANCE_FETCH_FAILED"
	CodeRecipientNotFound  Code = "RECIPIENT_NOT_FOUND"

	// Purchase
	CodePaymentFormFailed  Code = "PAYMENT_FORM_FAILED"
	CodeUnexpectedFormType Code = "UNEXPECTED_FORM_TYPE"
	CodePaymentRejected    Code = "PAYMENT_REJECTED"

	// Run control
	CodeRunActive Code = "RUN_ACTIVE"

	// WebSocket update feed
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
)
