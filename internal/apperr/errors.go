// Package apperr defines the failure taxonomy of an analysis run.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the run failure classes
var (
	// ErrMissingInput is returned when the source document does not exist
	ErrMissingInput = errors.New("missing input")

	// ErrConfiguration is returned when a static catalog or setting is malformed
	ErrConfiguration = errors.New("configuration error")

	// ErrWorkerFailure is returned when a classification worker fails
	ErrWorkerFailure = errors.New("worker failure")

	// ErrMissingTable is returned when the persisted result table is absent
	ErrMissingTable = errors.New("result table not found")
)

// MissingInputError carries the path of the absent document.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("source document '%s' not found", e.Path)
}

func (e *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

func (e *MissingInputError) Unwrap() error {
	return e.Err
}

// ConfigError names the catalog entry that failed validation.
type ConfigError struct {
	Component string
	Name      string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid %s '%s': %v", e.Component, e.Name, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Component, e.Err)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError for one catalog entry.
func NewConfigError(component, name string, err error) *ConfigError {
	return &ConfigError{Component: component, Name: name, Err: err}
}

// WorkerError records which sentence a classification worker failed on.
type WorkerError struct {
	SentenceIndex int
	Err           error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("classify sentence %d: %v", e.SentenceIndex, e.Err)
}

func (e *WorkerError) Is(target error) bool {
	return target == ErrWorkerFailure
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// MissingTableError carries the expected location of the result table.
type MissingTableError struct {
	Path string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("result table '%s' not found: run the analysis first", e.Path)
}

func (e *MissingTableError) Is(target error) bool {
	return target == ErrMissingTable
}
