package rule

import "fmt"

var (
	ErrMaxActions    = fmt.Errorf("rule: max actions exceeded")
	ErrMaxChainDepth = fmt.Errorf("rule: max chain depth exceeded")
	ErrBudget        = fmt.Errorf("rule: wall-clock budget exceeded")
	ErrUnboundTarget = fmt.Errorf("rule: action target variable is unbound")
)
