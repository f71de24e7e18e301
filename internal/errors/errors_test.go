package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverityFatal, "fatal"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestCardErrorMessage(t *testing.T) {
	cause := fmt.Errorf("quality 0 out of range")
	err := NewRenderError(ErrCodeLayoutFailed, "layout failed", cause).
		WithComponent("layout").
		WithFile("fonts/Inter.ttf")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_LAYOUT_FAILED]")
	assert.Contains(t, msg, "component:layout")
	assert.Contains(t, msg, "fonts/Inter.ttf")
	assert.True(t, strings.HasSuffix(msg, ": quality 0 out of range"))
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestCardErrorIs(t *testing.T) {
	err := fmt.Errorf("generate post: %w", ErrUnsupportedFormat("gif"))

	assert.True(t, errors.Is(err, NewConfigError(ErrCodeUnsupportedFormat, "")))
	assert.False(t, errors.Is(err, NewConfigError(ErrCodeInvalidOption, "")))
	assert.False(t, errors.Is(err, NewValidationError(ErrCodeUnsupportedFormat, "")))
}

func TestTypePredicates(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		typ      ErrorType
		config   bool
		render   bool
		io       bool
		recovers bool
	}{
		{"config", ErrInvalidOption("webp", "quality", 0, "must be 1..100"), ErrorTypeConfig, true, false, false, false},
		{"render", NewRenderError(ErrCodeInvalidColor, "bad color", nil), ErrorTypeRender, false, true, false, true},
		{"io", NewIOError(ErrCodeFontLoad, "missing", nil), ErrorTypeIO, false, false, true, false},
		{"validation", ErrPostNotFound("hello"), ErrorTypeValidation, false, false, false, true},
		{"plain", errors.New("plain"), "", false, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("wrapped: %w", tc.err)
			assert.Equal(t, tc.typ, TypeOf(wrapped))
			assert.Equal(t, tc.config, IsConfigError(wrapped))
			assert.Equal(t, tc.render, IsRenderError(wrapped))
			assert.Equal(t, tc.io, IsIOError(wrapped))
			assert.Equal(t, tc.recovers, IsRecoverable(wrapped))
		})
	}
}

func TestFieldsAreSorted(t *testing.T) {
	err := NewConfigError(ErrCodeInvalidOption, "bad").
		WithContext("zeta", 1).
		WithContext("alpha", 2)

	fields := err.Fields()
	require.Len(t, fields, 8)
	assert.Equal(t, []interface{}{"error_type", "config", "error_code", ErrCodeInvalidOption}, fields[:4])
	assert.Equal(t, "alpha", fields[4])
	assert.Equal(t, "zeta", fields[6])
}

type recordingLogger struct {
	level  string
	err    error
	msg    string
	fields []interface{}
}

func (r *recordingLogger) Error(_ context.Context, err error, msg string, fields ...interface{}) {
	r.level, r.err, r.msg, r.fields = "error", err, msg, fields
}

func (r *recordingLogger) Warn(_ context.Context, err error, msg string, fields ...interface{}) {
	r.level, r.err, r.msg, r.fields = "warn", err, msg, fields
}

func TestErrorHandler(t *testing.T) {
	t.Run("config errors log at error with fields", func(t *testing.T) {
		logger := &recordingLogger{}
		handler := NewErrorHandler(logger)

		handler.Handle(context.Background(), ErrUnsupportedFormat("gif"), "generation failed", "variant", "site")

		assert.Equal(t, "error", logger.level)
		assert.Equal(t, "generation failed", logger.msg)
		assert.Contains(t, logger.fields, ErrCodeUnsupportedFormat)
		assert.Equal(t, []interface{}{"variant", "site"}, logger.fields[len(logger.fields)-2:])
	})

	t.Run("validation errors log at warn", func(t *testing.T) {
		logger := &recordingLogger{}
		NewErrorHandler(logger).Handle(context.Background(), ErrPostNotFound("x"), "lookup")
		assert.Equal(t, "warn", logger.level)
	})

	t.Run("plain errors pass through", func(t *testing.T) {
		logger := &recordingLogger{}
		NewErrorHandler(logger).Handle(context.Background(), errors.New("boom"), "oops", "k", "v")
		assert.Equal(t, "error", logger.level)
		assert.Equal(t, []interface{}{"k", "v"}, logger.fields)
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		logger := &recordingLogger{}
		NewErrorHandler(logger).Handle(context.Background(), nil, "nothing")
		assert.Empty(t, logger.level)
	})
}

func TestValidationErrorCollection(t *testing.T) {
	vec := &ValidationErrorCollection{}
	assert.False(t, vec.HasErrors())
	assert.Nil(t, vec.ToCardError())

	vec.AddField("server.port", 70000, "port must be between 0 and 65535")
	assert.Equal(t, "validation error in field 'server.port': port must be between 0 and 65535", vec.Error())

	vec.AddField("canvas.width", -1, "must be positive", "use 1200")
	assert.Equal(t, "validation failed with 2 errors", vec.Error())

	ce := vec.ToCardError()
	require.NotNil(t, ce)
	assert.Equal(t, ErrorTypeValidation, ce.Type)
	assert.Equal(t, ErrCodeValidationFailed, ce.Code)
	assert.Contains(t, ce.Message, "server.port")
	assert.Contains(t, ce.Context, "canvas.width")
}

func TestFieldValidationError(t *testing.T) {
	var verr ValidationError = NewFieldValidationError("canvas.width", -1, "must be positive", "use 1200")

	assert.Equal(t, "canvas.width", verr.Field())
	assert.Equal(t, -1, verr.Value())
	assert.Equal(t, []string{"use 1200"}, verr.Suggestions())
	assert.Equal(t, "validation error in field 'canvas.width': must be positive", verr.Error())

	bare := NewFieldValidationError("server.port", 70000, "out of range")
	assert.Empty(t, bare.Suggestions())
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())

	cause := ErrInvalidOption("jpeg", "quality", 0, "must be 1..100")
	collector.Add(ArtifactError{Artifact: "posts/b", Status: 500, Message: "handler failed", Severity: ErrorSeverityError, Cause: cause})
	collector.Add(ArtifactError{Artifact: "posts/a", Message: "write failed", Severity: ErrorSeverityError})
	collector.AddError(nil)
	collector.AddError(errors.New("manifest failed"))

	assert.True(t, collector.HasErrors())
	assert.Equal(t, 3, collector.Count())

	got := collector.GetErrors()
	require.Len(t, got, 2)
	assert.Equal(t, "posts/a", got[0].Artifact)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Contains(t, got[1].Error(), "(status 500)")

	all := collector.GetAllErrors()
	require.Len(t, all, 3)
	assert.Contains(t, all[0].Error(), "posts/a")
	assert.Contains(t, all[1].Error(), "posts/b")
	assert.Equal(t, "manifest failed", all[2].Error())

	joined := collector.Err()
	require.Error(t, joined)
	assert.True(t, IsConfigError(joined))
	assert.Contains(t, joined.Error(), "manifest failed")

	collector.Clear()
	assert.False(t, collector.HasErrors())
}
