package model

import (
	"fmt"
	"strings"
)

// UnknownPatternError is returned when a caller names a pattern the registry does not hold.
type UnknownPatternError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownPatternError) Error() string {
	msg := fmt.Sprintf("unknown pattern %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// DuplicateNameError is returned when a pattern name is registered twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("pattern %q already registered", e.Name)
}

// NotFoundError is returned by registry lookups for absent names.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pattern %q not found", e.Name)
}

// ParseFailure records a file that could not be read or parsed.
type ParseFailure struct {
	Path string
	Err  error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// PatternFailure records one pattern whose matcher failed on one file.
type PatternFailure struct {
	Pattern string
	File    string
	Err     error
}

func (e *PatternFailure) Error() string {
	return fmt.Sprintf("pattern %s on %s: %v", e.Pattern, e.File, e.Err)
}

func (e *PatternFailure) Unwrap() error { return e.Err }

// GraphConstructionSkip records a file excluded from the component graph.
type GraphConstructionSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e *GraphConstructionSkip) Error() string {
	return fmt.Sprintf("skipped %s: %s", e.Path, e.Reason)
}
