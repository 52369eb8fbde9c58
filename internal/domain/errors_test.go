package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        *PipelineError
		wantKind   string
		wantStatus int
	}{
		{"malformed input", NewMalformedInputError("bad json"), ErrMalformedInput, http.StatusBadRequest},
		{"normalization", NewNormalizationError("not an object"), ErrNormalizationFailure, http.StatusUnprocessableEntity},
		{"retrieval backend", NewRetrievalBackendError("unreachable"), ErrRetrievalBackend, http.StatusBadGateway},
		{"generation", NewGenerationError("timed out"), ErrGenerationFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Contains(t, tt.err.Error(), tt.wantKind)
		})
	}
}

func TestConfigurationMissingEnumerates(t *testing.T) {
	err := NewConfigurationMissingError([]string{"generator.endpoint", "generator.api_key"})

	assert.Equal(t, ErrConfigurationMissing, err.Kind)
	assert.Contains(t, err.Message, "generator.endpoint")
	assert.Contains(t, err.Message, "generator.api_key")
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewGenerationError("generation failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Detail)
}

func TestAsPipelineError(t *testing.T) {
	t.Run("passes through structured errors", func(t *testing.T) {
		original := NewMalformedInputError("bad")
		wrapped := fmt.Errorf("handler: %w", original)

		pe := AsPipelineError(wrapped)
		require.NotNil(t, pe)
		assert.Equal(t, ErrMalformedInput, pe.Kind)
	})

	t.Run("wraps unknown errors as generation failure", func(t *testing.T) {
		pe := AsPipelineError(errors.New("boom"))
		assert.Equal(t, ErrGenerationFailure, pe.Kind)
		assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	})
}
