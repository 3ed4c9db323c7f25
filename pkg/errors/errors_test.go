package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	err := New("Logic.Op", "something broke", fmt.Errorf("root cause"))

	assert.Equal(t, KindInternal, err.GetKind())
	assert.Equal(t, http.StatusInternalServerError, err.GetCode())
	assert.Equal(t, "something broke", err.Message())
	assert.Contains(t, err.Error(), "Logic.Op")
	assert.Contains(t, err.Error(), "root cause")
}

func TestTraceChain(t *testing.T) {
	inner := New("Store.Get", "not found", nil).Kind(KindNotFound).Code(http.StatusNotFound)

	outer := Trace("Logic.Op", inner)
	assert.Same(t, inner, outer)
	assert.Contains(t, outer.Error(), "Store.Get->Logic.Op")
	assert.Equal(t, KindNotFound, outer.GetKind())
	assert.Equal(t, http.StatusNotFound, outer.GetCode())
}

func TestTracePlainError(t *testing.T) {
	err := Trace("Logic.Op", fmt.Errorf("boom"))
	assert.Equal(t, KindInternal, err.GetKind())
	assert.Contains(t, err.Error(), "boom")
}

func TestWrapInheritsKindAndCode(t *testing.T) {
	inner := New("srv.AI", "provider down", nil).Kind(KindProvider).Code(http.StatusBadGateway)

	outer := Wrap(inner, "Logic.Op", "generation failed")
	assert.Equal(t, KindProvider, outer.GetKind())
	assert.Equal(t, http.StatusBadGateway, outer.GetCode())
	assert.True(t, Is(outer, KindProvider))
	assert.False(t, Is(outer, KindValidation))
}

func TestRetryable(t *testing.T) {
	assert.True(t, KindPersistence.Retryable())
	assert.True(t, KindInternal.Retryable())
	assert.False(t, KindValidation.Retryable())
	assert.False(t, KindNotFound.Retryable())
	assert.False(t, KindLimitExceeded.Retryable())
	assert.False(t, KindProvider.Retryable())
}

func TestWithData(t *testing.T) {
	err := New("Logic.Op", "limit", nil).
		Kind(KindLimitExceeded).
		WithData(map[string]interface{}{"max": 20})

	assert.Equal(t, 20, err.Data()["max"])
}
