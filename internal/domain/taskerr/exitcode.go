package taskerr

// Process exit statuses. Schedulers only see the status, so each kind gets its own.
const (
	ExitOK           = 0
	ExitUnclassified = 1
	ExitConfig       = 2
	ExitConnection   = 3
	ExitQuery        = 4
	ExitDataShape    = 5
	ExitWrite        = 6
)

// ExitCode maps err onto a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindConfig:
		return ExitConfig
	case KindConnection:
		return ExitConnection
	case KindQuery:
		return ExitQuery
	case KindDataShape:
		return ExitDataShape
	case KindWrite:
		return ExitWrite
	default:
		return ExitUnclassified
	}
}
