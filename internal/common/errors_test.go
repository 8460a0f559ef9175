package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"missing file", fmt.Errorf("open: %w", ErrPathNotFound), codes.NotFound},
		{"directory", ErrNotRegularFile, codes.InvalidArgument},
		{"unsupported", ErrUnsupportedFormat, codes.Unimplemented},
		{"legacy", ErrLegacyFormat, codes.Unimplemented},
		{"invalid pdf", ErrInvalidDocument, codes.InvalidArgument},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeFromError(tt.err))
		})
	}
}

func TestStatusFromError_KeepsExistingStatus(t *testing.T) {
	in := NotFoundError("gone")
	assert.Equal(t, in, StatusFromError(in))

	out := StatusFromError(ErrLegacyFormat)
	assert.Equal(t, codes.Unimplemented, status.Code(out))
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewAppError("CONFIG_ERROR", "bad", ErrInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "CONFIG_ERROR: bad: invalid input", err.Error())
}

func TestHTTPStatusFromError(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatusFromError(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromError(fmt.Errorf("x: %w", ErrPathNotFound)))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromError(ErrNotFound))
	assert.Equal(t, http.StatusUnsupportedMediaType, HTTPStatusFromError(ErrLegacyFormat))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusFromError(ErrInvalidDocument))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromError(ErrNotRegularFile))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(errors.New("boom")))
}
