package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidMode          ErrorCode = 103
	ErrCodeInvalidSymbol        ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106

	// Quote errors (200-299)
	ErrCodeQuoteUnavailable   ErrorCode = 200
	ErrCodeQuoteFetchFailed   ErrorCode = 201
	ErrCodeQuoteParseFailed   ErrorCode = 202
	ErrCodeQuoteServerError   ErrorCode = 203
	ErrCodeAllHostsExhausted  ErrorCode = 204
	ErrCodeHistoricalRange    ErrorCode = 205
	ErrCodeNoDataFound        ErrorCode = 206

	// Scoring errors (300-399)
	ErrCodeScoreCalculation ErrorCode = 300
	ErrCodeScoreWindowShort ErrorCode = 301

	// Position errors (400-499)
	ErrCodeTradeLimitReached   ErrorCode = 400
	ErrCodeInsufficientShares  ErrorCode = 401
	ErrCodeSettlementRestricted ErrorCode = 402

	// Watchlist errors (500-599)
	ErrCodeWatchlistNotFound   ErrorCode = 500
	ErrCodeWatchlistReadFailed ErrorCode = 501

	// Notification errors (600-699)
	ErrCodeNotifyFailed ErrorCode = 600

	// Backtest errors (700-799)
	ErrCodeBacktestRange       ErrorCode = 700
	ErrCodeBacktestNoData      ErrorCode = 701
	ErrCodeBacktestReportWrite ErrorCode = 702
)
