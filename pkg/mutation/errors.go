package mutation

import "fmt"

// Failure modes named per-operation in §4.5's table.
var (
	ErrTypeUnknown         = fmt.Errorf("mutation: unknown type")
	ErrTypeAbstract        = fmt.Errorf("mutation: type is abstract")
	ErrRequiredMissing     = fmt.Errorf("mutation: required attribute missing")
	ErrAttrTypeMismatch    = fmt.Errorf("mutation: attribute value type mismatch")
	ErrAttrUnknown         = fmt.Errorf("mutation: unknown attribute")
	ErrUniqueViolation     = fmt.Errorf("mutation: unique attribute violation")
	ErrEntityNotFound      = fmt.Errorf("mutation: entity not found")
	ErrReferentialRestrict = fmt.Errorf("mutation: referential restrict policy refused deletion")
	ErrSignatureMismatch   = fmt.Errorf("mutation: edge targets do not match signature")
	ErrSelfLoopForbidden   = fmt.Errorf("mutation: self-loop forbidden unless reflexive_allowed")
	ErrDuplicateSymmetric  = fmt.Errorf("mutation: duplicate symmetric edge")
)
