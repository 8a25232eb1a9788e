package exitcodes

// Exit codes for the treekit CLI
// These codes form the operational contract with CI/CD and operators
const (
	Success         = 0 // Successful execution
	InvalidConfig   = 2 // Configuration file or arguments invalid
	SafetyViolation = 3 // Safety validator blocked an operation
	RuntimeError    = 4 // Runtime error during execution
	PartialFailure  = 5 // Bulk operation aborted mid-sequence
)
