package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Wallet session error codes
const (
	// Provider discovery
	CodeWalletDetectionFailed Code = "WALLET_DETECTION_FAILED"
	CodeWalletNotSupported    Code = "WALLET_NOT_SUPPORTED"
	CodeWalletNotFound        Code = "WALLET_NOT_FOUND"

	// User interaction outcomes reported by the wallet
	CodeRequestRejected Code = "WALLET_REQUEST_REJECTED"
	CodeRequestPending  Code = "WALLET_REQUEST_PENDING"

	// Account
	CodeWalletLocked       Code = "WALLET_LOCKED"
	CodeWalletUnlockFailed Code = "WALLET_UNLOCK_FAILED"
	CodeAccountNotLoaded   Code = "ACCOUNT_NOT_LOADED"

	// Network
	CodeNetworkDetectionFailed Code = "NETWORK_DETECTION_FAILED"
	CodeNetworkNotSupported    Code = "NETWORK_NOT_SUPPORTED"
	CodeNetworkSwitchFailed    Code = "NETWORK_SWITCH_FAILED"
	CodeNetworkSwitchRejected  Code = "NETWORK_SWITCH_REJECTED"

	// Sign-in
	CodeSignRejected     Code = "SIGN_REJECTED"
	CodeSignFailed       Code = "SIGN_FAILED"
	CodeSignTimedOut     Code = "SIGN_TIMED_OUT"
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"
	CodeTokenIssueFailed Code = "TOKEN_ISSUE_FAILED"

	// Profile enrichment
	CodeDomainResolutionFailed Code = "DOMAIN_RESOLUTION_FAILED"

	// Session persistence
	CodeSessionStoreFailed Code = "SESSION_STORE_FAILED"
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"

	// Blockchain RPC
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeBalanceFetchFailed       Code = "BALANCE_FETCH_FAILED"

	// WebSocket API
	CodeWebSocketClosed    Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError Code = "WEBSOCKET_SEND_ERROR"
	CodeUnknownCommand     Code = "UNKNOWN_COMMAND"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
