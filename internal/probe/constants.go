package probe

import "time"

// HTTP status code constants.
const (
	StatusOK           = 200
	StatusUnauthorized = 401
)

// Defaults applied by Normalize.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultToken    = "Bearer probe"
	DefaultEntities = 200
	DefaultProducts = 80
	DefaultRounds   = 5
	DefaultTimeout  = 30 * time.Second
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	directoryPermission  = 0750
	logFilePermission    = 0600
)
