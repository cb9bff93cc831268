package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",
	CodeMissingCredentials: "API credentials are not configured",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Session / authentication
	CodeGatewayConnectionFailed: "Failed to connect to the Telegram gateway",
	CodeAuthRequired:            "Session is not authorized, interactive login required",
	CodeSessionClosed:           "Session is closed",

	// Catalog / balance
	CodeCatalogFetchFailed: "Failed to fetch the gift catalog",
	CodeBalanceFetchFailed: "Failed to fetch the Stars balance",
	CodeRecipientNotFound:  "Recipient could not be resolved",

	// Purchase
	CodePaymentFormFailed:  "Failed to request the payment form",
	CodeUnexpectedFormType: "Unexpected payment form type",
	CodePaymentRejected:    "Payment submission was rejected",

	// Run control
	CodeRunActive: "An acquisition run is already active",

	// WebSocket update feed
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
}
