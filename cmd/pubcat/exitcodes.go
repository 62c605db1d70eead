package main

// Exit codes
const (
	ExitSuccess        = 0 // Success
	ExitError          = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError    = 2 // Configuration error (unreadable or invalid config)
	ExitDataError      = 3 // Data error (document holds no publications)
	ExitRetrievalError = 4 // Document could not be retrieved
)
