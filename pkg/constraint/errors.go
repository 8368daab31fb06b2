package constraint

import "fmt"

var (
	// ErrHardViolation names the failure of at least one hard, immediate
	// constraint (§4.7 "hard constraints abort the transaction"). This
	// package's checkers report violations as values and do not return it
	// themselves. Soft violations never map to this error; they are
	// reported but do not block.
	ErrHardViolation = fmt.Errorf("constraint: hard constraint violated")
)
