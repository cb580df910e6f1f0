package pipeline

import "time"

// Default values for file processing. Config overrides them.
const (
	// DefaultWorkers bounds how many files of a batch are processed at once.
	DefaultWorkers = 4

	// DefaultOracleTimeout bounds one categorization call.
	DefaultOracleTimeout = 30 * time.Second
)
