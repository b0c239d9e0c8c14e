package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesKind(t *testing.T) {
	err := Wrap(CacheUnavailable, "hgetall users:1", errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("get user: %w", err)

	assert.ErrorIs(t, wrapped, ErrCacheUnavailable)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, CacheUnavailable, KindOf(wrapped))
	assert.Contains(t, err.Error(), "cache_unavailable")
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(Internal, "noop", nil))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, NotFound, KindOf(New(NotFound, "post not found")))
}
