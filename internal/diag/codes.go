package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Registry construction (fatal to the unit).
	RegInfo             Code = 1000
	RegDuplicateImpl    Code = 1001
	RegConversionCycle  Code = 1002
	RegDuplicateEdge    Code = 1003
	RegFallibleEdge     Code = 1004
	RegUnknownTrait     Code = 1005
	RegUnknownType      Code = 1006
	RegMethodMismatch   Code = 1007
	RegSealedMutation   Code = 1008
	RegOpaqueViolation  Code = 1009

	// Generic binding.
	GenInfo                        Code = 2000
	GenMissingExplicitTypeArgument Code = 2001
	GenConstraintNotSatisfied      Code = 2002
	GenInferenceFailed             Code = 2003
	GenRecursionLimitExceeded      Code = 2004
	GenTooManyExplicitArguments    Code = 2005
	GenDefaultOrderViolation       Code = 2006

	// Dispatch resolution.
	DisInfo             Code = 3000
	DisNoApplicableImpl Code = 3001
	DisAmbiguous        Code = 3002
	DisUnknownMethod    Code = 3003

	// Pattern matching.
	MatInfo           Code = 4000
	MatNonExhaustive  Code = 4001
	MatUnreachableArm Code = 4002
	MatArityMismatch  Code = 4003
	MatUnknownVariant Code = 4004
	MatOpaqueScrutiny Code = 4005

	// I/O and snapshots.
	IOInfo            Code = 5000
	IOLoadFileError   Code = 5001
	IOSnapshotCorrupt Code = 5002
)

func (c Code) String() string {
	return fmt.Sprintf("K%04d", uint16(c))
}

// IsWarningDefault reports whether the code is a warning by default
// (everything else defaults to error severity).
func (c Code) IsWarningDefault() bool {
	return c == MatUnreachableArm
}
