package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"conflict", domain.ErrConflict, http.StatusBadRequest},
		{"invalid or expired", domain.ErrInvalidOrExpired, http.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"dependency", domain.ErrDependency, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, fmt.Errorf("context: %w", tc.err))
			assert.Equal(t, tc.want, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestWriteError_UnknownErrorDoesNotLeakDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("dynamodb: table arn secret"))
	assert.NotContains(t, rr.Body.String(), "dynamodb")
	assert.Contains(t, rr.Body.String(), "internal server error")
}
