// Package errors provides the structured error types shared by every stage
// of the image pipeline.
//
// Errors carry a category (config, render, io, validation, internal), a
// stable code, and optional context fields. The category follows the
// pipeline's failure taxonomy: encoder rejections are configuration errors,
// markup and font failures are rendering errors, and missing files at
// startup are I/O errors.
package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// CardError is a structured error type with context.
type CardError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *CardError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CardError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *CardError) Is(target error) bool {
	var t *CardError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CardError) WithContext(key string, value interface{}) *CardError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error relates to.
func (e *CardError) WithFile(path string) *CardError {
	e.FilePath = path

	return e
}

// WithComponent adds component context.
func (e *CardError) WithComponent(component string) *CardError {
	e.Component = component

	return e
}

// Fields flattens the error into key/value pairs for structured logging.
// Context keys are emitted in sorted order.
func (e *CardError) Fields() []interface{} {
	fields := []interface{}{"error_type", string(e.Type), "error_code", e.Code}
	if e.Component != "" {
		fields = append(fields, "error_component", e.Component)
	}
	if e.FilePath != "" {
		fields = append(fields, "file", e.FilePath)
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}

	return fields
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *CardError {
	return &CardError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error. The encoder returns these
// when it rejects a format or option.
func NewConfigError(code, message string) *CardError {
	return &CardError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewRenderError creates a rendering error.
func NewRenderError(code, message string, cause error) *CardError {
	return &CardError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CardError {
	return &CardError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CardError {
	return &CardError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ce *CardError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}

// IsRenderError reports whether err is a rendering error.
func IsRenderError(err error) bool {
	return TypeOf(err) == ErrorTypeRender
}

// IsIOError reports whether err is an I/O error.
func IsIOError(err error) bool {
	return TypeOf(err) == ErrorTypeIO
}

// TypeOf returns the category of the outermost CardError in the chain, or
// the empty type when err carries none.
func TypeOf(err error) ErrorType {
	var ce *CardError
	if errors.As(err, &ce) {
		return ce.Type
	}

	return ""
}

// AsCardError returns the outermost CardError in the chain.
func AsCardError(err error) (*CardError, bool) {
	var ce *CardError
	ok := errors.As(err, &ce)
	return ce, ok
}

// CodeOf returns the code of the outermost CardError in the chain.
func CodeOf(err error) string {
	var ce *CardError
	if errors.As(err, &ce) {
		return ce.Code
	}

	return ""
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its structured detail. Validation failures are
// logged as warnings, everything else as errors. Extra fields are appended
// after the error's own fields.
func (h *ErrorHandler) Handle(ctx context.Context, err error, msg string, fields ...interface{}) {
	if err == nil || h.logger == nil {
		return
	}

	var ce *CardError
	if !errors.As(err, &ce) {
		h.logger.Error(ctx, err, msg, fields...)
		return
	}

	all := append(ce.Fields(), fields...)
	switch ce.Type {
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, msg, all...)
	default:
		h.logger.Error(ctx, err, msg, all...)
	}
}

// Common error codes.
const (
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeInvalidOption     = "ERR_INVALID_OPTION"
	ErrCodeEncodeFailed      = "ERR_ENCODE_FAILED"
	ErrCodeUnknownVariant    = "ERR_UNKNOWN_VARIANT"
	ErrCodeLayoutFailed      = "ERR_LAYOUT_FAILED"
	ErrCodeInvalidColor      = "ERR_INVALID_COLOR"
	ErrCodeFontNotFound      = "ERR_FONT_NOT_FOUND"
	ErrCodeFontLoad          = "ERR_FONT_LOAD"
	ErrCodePostNotFound      = "ERR_POST_NOT_FOUND"
	ErrCodeFrontmatter       = "ERR_FRONTMATTER"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed       = "ERR_WRITE_FAILED"
	ErrCodeArtifactFailed    = "ERR_ARTIFACT_FAILED"
	ErrCodeInternalError     = "ERR_INTERNAL"
	ErrCodeValidationFailed  = "ERR_VALIDATION_FAILED"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToCardError converts the collection to a single validation error, or nil
// when the collection is empty.
func (vec *ValidationErrorCollection) ToCardError() *CardError {
	if !vec.HasErrors() {
		return nil
	}

	messages := make([]string, 0, len(vec.Errors))
	context := make(map[string]interface{}, len(vec.Errors))

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &CardError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}

// ErrUnsupportedFormat creates the encoder's unknown-format error.
func ErrUnsupportedFormat(format string) *CardError {
	return NewConfigError(ErrCodeUnsupportedFormat, "unsupported image format: "+format).
		WithContext("format", format)
}

// ErrInvalidOption creates the encoder's rejected-option error.
func ErrInvalidOption(format, option string, value interface{}, reason string) *CardError {
	return NewConfigError(
		ErrCodeInvalidOption,
		fmt.Sprintf("invalid %s option %s=%v: %s", format, option, value, reason),
	).WithContext("format", format).WithContext("option", option)
}

// ErrUnknownVariant creates an unknown template variant error.
func ErrUnknownVariant(variant string) *CardError {
	return NewValidationError(ErrCodeUnknownVariant, "unknown image variant: "+variant).
		WithContext("variant", variant)
}

// ErrPostNotFound creates a post lookup error.
func ErrPostNotFound(id string) *CardError {
	return NewValidationError(ErrCodePostNotFound, "post not found: "+id).
		WithContext("post_id", id)
}
