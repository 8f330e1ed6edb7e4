package verilog

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidUsage is matched by InvalidUsageError.
var ErrInvalidUsage = errors.New("declarations can only be generated for internal modules")

type InvalidUsageError struct {
	Module string
}

func (e *InvalidUsageError) Error() string {
	return fmt.Sprintf("module %s: %v", e.Module, ErrInvalidUsage)
}

func (e *InvalidUsageError) Is(target error) bool { return target == ErrInvalidUsage }

// UnresolvedPortError reports an instance port that no connection drives
// or reads.
type UnresolvedPortError struct {
	Module   string
	Instance string
	Port     string
}

func (e *UnresolvedPortError) Error() string {
	return fmt.Sprintf("module %s: port %q of instance %q is not connected", e.Module, e.Port, e.Instance)
}

// ConflictError reports two different modules in one design that share a
// name.
type ConflictError struct {
	Module string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("design has conflicting definitions of module %s", e.Module)
}
