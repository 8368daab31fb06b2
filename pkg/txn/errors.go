package txn

import "fmt"

var (
	ErrNotActive          = fmt.Errorf("txn: transaction is not active")
	ErrAlreadyEnded       = fmt.Errorf("txn: transaction has already been committed or rolled back")
	ErrUnknownSavepoint   = fmt.Errorf("txn: unknown savepoint")
	ErrConstraintHard     = fmt.Errorf("txn: hard constraint violated")
	ErrRuleLimitExceeded  = fmt.Errorf("txn: rule engine safety limit exceeded")
)
