package errors

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ArtifactError records the failure of a single output artifact.
type ArtifactError struct {
	Artifact  string
	Path      string
	Status    int
	Message   string
	Severity  ErrorSeverity
	Cause     error
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (ae *ArtifactError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ae.Artifact, ae.Severity, ae.Message)
	if ae.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", ae.Status)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (ae *ArtifactError) Unwrap() error {
	return ae.Cause
}

// ErrorCollector collects artifact failures from concurrent workers.
type ErrorCollector struct {
	artifactErrors []ArtifactError
	errors         []error
	mutex          sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		artifactErrors: make([]ArtifactError, 0),
		errors:         make([]error, 0),
	}
}

// Add adds an artifact error to the collector
func (ec *ErrorCollector) Add(err ArtifactError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	err.Timestamp = time.Now()
	ec.artifactErrors = append(ec.artifactErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns the artifact errors sorted by artifact name.
func (ec *ErrorCollector) GetErrors() []ArtifactError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]ArtifactError, len(ec.artifactErrors))
	copy(result, ec.artifactErrors)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Artifact < result[j].Artifact
	})
	return result
}

// GetAllErrors returns all collected errors (artifact and general)
func (ec *ErrorCollector) GetAllErrors() []error {
	artifactErrors := ec.GetErrors()

	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	allErrors := make([]error, 0, len(artifactErrors)+len(ec.errors))
	for i := range artifactErrors {
		allErrors = append(allErrors, &artifactErrors[i])
	}
	allErrors = append(allErrors, ec.errors...)

	return allErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.artifactErrors) > 0 || len(ec.errors) > 0
}

// Count returns the number of collected errors.
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.artifactErrors) + len(ec.errors)
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.artifactErrors = ec.artifactErrors[:0]
	ec.errors = ec.errors[:0]
}

// Err joins every collected error, or returns nil when there are none.
func (ec *ErrorCollector) Err() error {
	all := ec.GetAllErrors()
	if len(all) == 0 {
		return nil
	}
	return errors.Join(all...)
}
