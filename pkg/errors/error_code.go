package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Input validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeEmptySeries          ErrorCode = 102
	ErrCodeNonMonotonicSeries   ErrorCode = 103
	ErrCodeDuplicateTimestamp   ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInvalidVolume        ErrorCode = 106
	ErrCodeSignalNotAligned     ErrorCode = 107
	ErrCodeInvalidSignal        ErrorCode = 108

	// Data errors (200-299)
	ErrCodeInsufficientData  ErrorCode = 200
	ErrCodeBenchmarkMismatch ErrorCode = 201

	// Simulation errors (300-399)
	ErrCodeSimulationFailed ErrorCode = 300

	// Metrics errors (400-499)
	ErrCodeMetricsFailed ErrorCode = 400

	// Walk-forward errors (500-599)
	ErrCodeWindowGeneration  ErrorCode = 500
	ErrCodeWindowFailed      ErrorCode = 501
	ErrCodeAllWindowsFailed  ErrorCode = 502
	ErrCodeSignalFuncFailed  ErrorCode = 503
	ErrCodeNoWindowsProduced ErrorCode = 504

	// Monte Carlo errors (600-699)
	ErrCodeSampleFailed     ErrorCode = 600
	ErrCodeAllSamplesFailed ErrorCode = 601
	ErrCodeSimulateFunc     ErrorCode = 602

	// Validation engine errors (700-799)
	ErrCodeValidationConfig ErrorCode = 700
	ErrCodeValidationFailed ErrorCode = 701
)
