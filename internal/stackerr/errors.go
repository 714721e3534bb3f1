package stackerr

import (
	"errors"
	"fmt"
)

// Exit codes reported by the CLI. They match the codes scripts already depend on.
const (
	ExitInput        = 1
	ExitOutputSchema = 2
	ExitNoStack      = 3
)

// ParseError reports text that could not be decoded into the expected shape.
// It is unrecoverable for the given input.
type ParseError struct {
	// Source names what was being parsed, e.g. "rules" or "blueprint".
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a semantically invalid field value.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Rule
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Rule)
}

// NoCandidateError is returned when every candidate of a category was
// filtered out by hard constraints.
type NoCandidateError struct {
	Category string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("no suitable %s candidates found", e.Category)
}

// BudgetExceededError is returned when the aggregate monthly cost of the
// chosen stack exceeds the blueprint's cap.
type BudgetExceededError struct {
	Cap   float64
	Total float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("no stack found within cost constraint of $%.2f (computed total $%.2f)", e.Cap, e.Total)
}

// IoError wraps file system failures raised by the collaborators around the core.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// OutputSchemaError marks a produced plan that failed output validation.
type OutputSchemaError struct {
	Err error
}

func (e *OutputSchemaError) Error() string {
	return fmt.Sprintf("output schema validation failed: %v", e.Err)
}

func (e *OutputSchemaError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by any layer to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		outErr    *OutputSchemaError
		noCand    *NoCandidateError
		budgetErr *BudgetExceededError
	)
	switch {
	case errors.As(err, &outErr):
		return ExitOutputSchema
	case errors.As(err, &noCand), errors.As(err, &budgetErr):
		return ExitNoStack
	default:
		return ExitInput
	}
}
