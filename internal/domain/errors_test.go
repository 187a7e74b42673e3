package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Extractor.Extract", ErrHTTPStatus, "status 404")
	want := "Extractor.Extract: status 404: non-success http status"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Backend.Find", ErrCircuitOpen, "")
	want := "Backend.Find: circuit open"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Fetcher.Get", ErrSSRFBlocked, "http://127.0.0.1")
	if !errors.Is(err, ErrSSRFBlocked) {
		t.Error("errors.Is should match ErrSSRFBlocked")
	}
}

func TestDomainErrorAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewDomainError("Extractor.parseJSON", ErrUnparseable, "bad token"))
	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Extractor.parseJSON", de.Op)
	assert.Equal(t, CodeUnparseable, de.Code())
}

func TestWrapOp(t *testing.T) {
	assert.Nil(t, WrapOp("op", nil))

	err := WrapOp("Search.run", ErrNoContent)
	assert.True(t, errors.Is(err, ErrNoContent))
	assert.Equal(t, "Search.run: no usable content", err.Error())
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"plain", errors.New("boom"), CodeUnknown},
		{"direct", ErrHTTPStatus, CodeHTTPStatus},
		{"domain error", NewDomainError("op", ErrNoContent, ""), CodeNoContent},
		{"wrapped", fmt.Errorf("x: %w", ErrRateLimit), CodeRateLimit},
		{"ssrf inside fetch", fmt.Errorf("%w: %w", ErrFetch, ErrSSRFBlocked), CodeSSRFBlocked},
		{"fetch only", NewDomainError("Fetcher.Get", ErrFetch, "dial tcp"), CodeFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeOf(tt.err))
		})
	}
}
