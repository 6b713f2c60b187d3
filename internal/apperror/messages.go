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

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Provider discovery
	CodeWalletDetectionFailed: "Wallet detection failed",
	CodeWalletNotSupported:    "No supported wallet found",
	CodeWalletNotFound:        "Wallet not found",

	// User interaction outcomes
	CodeRequestRejected: "Request rejected in wallet",
	CodeRequestPending:  "Request already processing, check your wallet",

	// Account
	CodeWalletLocked:       "Wallet is locked",
	CodeWalletUnlockFailed: "Wallet unlock failed",
	CodeAccountNotLoaded:   "Account not loaded",

	// Network
	CodeNetworkDetectionFailed: "Network detection failed",
	CodeNetworkNotSupported:    "Network not supported",
	CodeNetworkSwitchFailed:    "Network switch failed",
	CodeNetworkSwitchRejected:  "Network switch rejected",

	// Sign-in
	CodeSignRejected:     "Signature request rejected",
	CodeSignFailed:       "Sign failed",
	CodeSignTimedOut:     "Signature request timed out",
	CodeSignatureInvalid: "Signature does not match account",
	CodeTokenIssueFailed: "Failed to issue access token",

	// Profile enrichment
	CodeDomainResolutionFailed: "Domain name resolution failed",

	// Session persistence
	CodeSessionStoreFailed: "Session store operation failed",
	CodeSessionNotFound:    "Session not found",

	// Blockchain RPC
	CodeEthereumConnectionFailed: "Failed to connect to RPC node",
	CodeEthereumRPCError:         "RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeBalanceFetchFailed:       "Failed to fetch balance",

	// WebSocket API
	CodeWebSocketClosed:    "WebSocket connection closed",
	CodeWebSocketSendError: "Failed to send WebSocket message",
	CodeUnknownCommand:     "Unknown command",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
