// Package issue is the diagnostic channel every pass in ssair reports
// through: the issue tracker of spec.md §6.3, grounded on
// original_source/common/issues/issues.h and ir_issues::IssueTracker.
// Passes never mutate it concurrently (spec.md §5) and never throw; all
// failure is Add-to-tracker-and-continue, or a Go error for conditions a
// pass truly cannot continue past.
package issue

import (
	"fmt"

	"ssair/internal/source"
)

// Severity classifies how badly an issue affects the enclosing pass.
type Severity int

const (
	// Warning: the pass can still complete.
	Warning Severity = iota
	// Error: the pass can partially continue but its result must not be
	// trusted as complete.
	Error
	// Fatal: the pass cannot usefully continue; callers must abort.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Origin names which stage raised an issue.
type Origin string

const (
	OriginScanner   Origin = "scanner"
	OriginParser    Origin = "parser"
	OriginChecker   Origin = "checker"
	OriginExtension Origin = "extension"
	OriginLowering  Origin = "lowering"
)

// Kind numbering follows original_source/src/ir/issues/issues.h: each
// compiler stage reserves a contiguous band, so a glance at a kind number
// alone tells you which stage raised it (spec.md §6.3).
type Kind int

const KindScannerStart Kind = 1000

const (
	// 1000-1999: scanner.
	KindUnexpectedByte = KindScannerStart + 1 + iota
	KindNumberCannotBeRepresented
	KindAddressCannotBeRepresented
	KindEOFInUnterminatedEscape
	KindEOFInUnterminatedString
)

const KindScannerEnd Kind = 1999

const KindParserStart Kind = 2000

const (
	// 2000-2999: parser.
	KindUnexpectedToken = KindParserStart + 1 + iota
	KindDuplicateFuncNumber
	KindDuplicateBlockNumber
	KindUnknownTypeName
	KindUnknownInstructionName
	KindUnresolvedBlockReference
	KindWrongResultArity
	KindWrongOperandArity
	KindNegativeShiftOffsetConstant
)

const KindParserEnd Kind = 2999

const KindCheckerStart Kind = 3000

const (
	// 3000-3999: checker.
	KindValueHasNullType = KindCheckerStart + 1 + iota
	KindFuncHasNoEntryBlock
	KindFuncHasNullResultType
	KindValueUsedInMultipleFuncs
	KindValueNumberUsedMultipleTimes
	KindValueHasMultipleDefinitions
	KindValueHasNoDefinition
	KindInstrDefinesNullValue
	KindInstrUsesNullValue
	KindEntryBlockHasParents
	KindNonEntryBlockHasNoParents
	KindBlockIsEmpty
	KindControlFlowMissingAtEnd
	KindControlFlowBeforeEnd
	KindPhiInBlockWithoutMultipleParents
	KindPhiAfterNonPhiInstruction
	KindNonPhiUsesInheritedValue
	KindDefinitionDoesNotDominateUse
	KindOperandOrResultTypeMismatch
	KindCallCalleeTypeMismatch
	KindCallSignatureMismatch
	KindReturnSignatureMismatch
	KindJumpDestinationNotAChild
	KindJumpCondDuplicateDestinations
)

const KindCheckerEnd Kind = 3999

const KindExtensionStart Kind = 4000

const (
	// 4000+: extension checker (shared/unique pointer, string) and lowering.
	KindSharedPointerResultTypeMismatch = KindExtensionStart + 1 + iota
	KindSharedPointerStrengthMismatch
	KindSharedPointerElementTypeMismatch
	KindUniquePointerResultTypeMismatch
	KindUniquePointerElementTypeMismatch
	KindStringIndexTypeMismatch
	KindStringConcatTypeMismatch
	KindLoweringInvariantViolated
)

// Issue is one diagnostic: a kind, severity, optional origin tag, message,
// and a non-empty set of source ranges (spec.md §6.3).
type Issue struct {
	Kind     Kind
	Severity Severity
	Origin   Origin
	Message  string
	Ranges   []source.Range
}

// Category returns the human-readable compiler stage that owns k's band.
func (k Kind) Category() string {
	switch {
	case k >= KindScannerStart && k <= KindScannerEnd:
		return "scanner"
	case k >= KindParserStart && k <= KindParserEnd:
		return "parser"
	case k >= KindCheckerStart && k <= KindCheckerEnd:
		return "checker"
	case k >= KindExtensionStart:
		return "extension"
	default:
		return "unknown"
	}
}

// Tracker collects issues raised during one pass or pipeline run. It is the
// caller-owned container of spec.md §5 — passes are given one explicitly
// and never share it concurrently.
type Tracker struct {
	issues []Issue
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends one issue at the given severity.
func (t *Tracker) Add(kind Kind, severity Severity, origin Origin, ranges []source.Range, format string, args ...any) {
	t.issues = append(t.issues, Issue{
		Kind:     kind,
		Severity: severity,
		Origin:   origin,
		Message:  fmt.Sprintf(format, args...),
		Ranges:   ranges,
	})
}

// Issues returns every issue recorded so far, in reporting order.
func (t *Tracker) Issues() []Issue { return t.issues }

// HasWarnings reports whether any issue is warning-severity.
func (t *Tracker) HasWarnings() bool {
	for _, i := range t.issues {
		if i.Severity == Warning {
			return true
		}
	}
	return false
}

// HasErrors reports whether any issue is error- or fatal-severity.
func (t *Tracker) HasErrors() bool {
	for _, i := range t.issues {
		if i.Severity == Error || i.Severity == Fatal {
			return true
		}
	}
	return false
}

// HasFatal reports whether any issue is fatal-severity.
func (t *Tracker) HasFatal() bool {
	for _, i := range t.issues {
		if i.Severity == Fatal {
			return true
		}
	}
	return false
}

// Reset clears the tracker so it can be reused across pipeline stages that
// want per-stage issue sets without allocating a fresh tracker.
func (t *Tracker) Reset() { t.issues = nil }
