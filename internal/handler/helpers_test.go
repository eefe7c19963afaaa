package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/merithub/merit/internal/engine"
)

func TestWriteEngineErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{engine.ErrValidation, http.StatusBadRequest},
		{engine.ErrNotFound, http.StatusNotFound},
		{engine.ErrUnauthorized, http.StatusForbidden},
		{engine.ErrExpired, http.StatusGone},
		{engine.ErrInsufficientBalance, http.StatusConflict},
		{engine.ErrAlreadyMember, http.StatusConflict},
		{engine.ErrAlreadyProcessed, http.StatusConflict},
		{engine.ErrDuplicatePending, http.StatusConflict},
		{engine.ErrGroupFull, http.StatusConflict},
		{engine.ErrConflict, http.StatusConflict},
		{engine.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeEngineError(rec, fmt.Errorf("wrapped: %w", tc.err))
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWithRetryRetriesConflict(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("approve: %w", engine.ErrConflict)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil after retries", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryDoesNotRetryBusinessErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("approve: %w", engine.ErrInsufficientBalance)
	})
	if !errors.Is(err, engine.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("approve: %w", engine.ErrConflict)
	})
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict after exhausting retries", err)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4 (initial + 3 retries)", attempts)
	}
}
