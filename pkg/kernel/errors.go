package kernel

import (
	"errors"
	"fmt"

	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/txn"
)

// Kind closes the error taxonomy of §7: every error a kernel operation
// can return classifies into exactly one of these, regardless of which
// internal package raised it.
type Kind int

const (
	KindUnknown Kind = iota
	SyntaxError
	NameResolutionError
	TypeError
	NotFoundError
	UniquenessError
	RequiredError
	ReferentialError
	ConstraintError
	RuleLimitError
	TransactionError
	IOError
	RecoveryError
	SchemaError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case NameResolutionError:
		return "NameResolutionError"
	case TypeError:
		return "TypeError"
	case NotFoundError:
		return "NotFoundError"
	case UniquenessError:
		return "UniquenessError"
	case RequiredError:
		return "RequiredError"
	case ReferentialError:
		return "ReferentialError"
	case ConstraintError:
		return "ConstraintError"
	case RuleLimitError:
		return "RuleLimitError"
	case TransactionError:
		return "TransactionError"
	case IOError:
		return "IOError"
	case RecoveryError:
		return "RecoveryError"
	case SchemaError:
		return "SchemaError"
	default:
		return "UnknownError"
	}
}

// KernelError wraps an underlying package-level error with the §7 kind
// it classifies as and the operation that produced it. Grounded on the
// teacher's `storage.StorageError`/`ErrorBuilder` (`pkg/storage/errors.go`):
// same Op+Cause shape and `fmt.Errorf("...: %w", err)` wrapping idiom,
// generalized from storage-only entities to every kernel component.
type KernelError struct {
	Kind  Kind
	Op    string
	Cause error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
}

func (e *KernelError) Unwrap() error { return e.Cause }

func (e *KernelError) Is(target error) bool {
	var ke *KernelError
	if errors.As(target, &ke) {
		return e.Kind == ke.Kind
	}
	return errors.Is(e.Cause, target)
}

// classify wraps err, raised by op, as a KernelError of the appropriate
// Kind by matching it against every package's sentinel error set. An err
// that matches nothing classifies as KindUnknown rather than guessing.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *KernelError
	if errors.As(err, &already) {
		return err
	}
	return &KernelError{Kind: kindOf(err), Op: op, Cause: err}
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, mutation.ErrTypeUnknown),
		errors.Is(err, registry.ErrUnknownType),
		errors.Is(err, registry.ErrUnknownEdgeType),
		errors.Is(err, registry.ErrUnknownAttr),
		errors.Is(err, registry.ErrUnknownPattern):
		return NameResolutionError

	case errors.Is(err, mutation.ErrTypeAbstract),
		errors.Is(err, registry.ErrAbstractType),
		errors.Is(err, registry.ErrCyclicInheritance):
		return SchemaError

	case errors.Is(err, mutation.ErrAttrTypeMismatch),
		errors.Is(err, mutation.ErrSignatureMismatch),
		errors.Is(err, pattern.ErrArityMismatch):
		return TypeError

	case errors.Is(err, mutation.ErrRequiredMissing):
		return RequiredError

	case errors.Is(err, mutation.ErrAttrUnknown),
		errors.Is(err, pattern.ErrDuplicateVar),
		errors.Is(err, pattern.ErrUndeclaredVar),
		errors.Is(err, pattern.ErrUnknownVarInCond):
		return SyntaxError

	case errors.Is(err, mutation.ErrUniqueViolation),
		errors.Is(err, mutation.ErrDuplicateSymmetric):
		return UniquenessError

	case errors.Is(err, mutation.ErrEntityNotFound):
		return NotFoundError

	case errors.Is(err, mutation.ErrReferentialRestrict),
		errors.Is(err, mutation.ErrSelfLoopForbidden):
		return ReferentialError

	case errors.Is(err, txn.ErrConstraintHard):
		return ConstraintError

	case errors.Is(err, txn.ErrRuleLimitExceeded),
		errors.Is(err, rule.ErrMaxActions),
		errors.Is(err, rule.ErrMaxChainDepth),
		errors.Is(err, rule.ErrBudget),
		errors.Is(err, rule.ErrUnboundTarget):
		return RuleLimitError

	case errors.Is(err, txn.ErrNotActive),
		errors.Is(err, txn.ErrAlreadyEnded),
		errors.Is(err, txn.ErrUnknownSavepoint):
		return TransactionError

	default:
		return KindUnknown
	}
}
