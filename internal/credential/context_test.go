package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromContext(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		token, ok := TokenFromContext(context.Background())
		assert.False(t, ok)
		assert.Empty(t, token)
	})

	t.Run("present", func(t *testing.T) {
		ctx := WithToken(context.Background(), "abc")
		token, ok := TokenFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "abc", token)
	})

	t.Run("empty token is not stored", func(t *testing.T) {
		ctx := WithToken(context.Background(), "")
		_, ok := TokenFromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("parent is unaffected", func(t *testing.T) {
		parent := context.Background()
		_ = WithToken(parent, "abc")
		_, ok := TokenFromContext(parent)
		assert.False(t, ok)
	})
}

func TestConcurrentRequestsSeeOwnToken(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("token-%d", i)
			ctx := WithToken(context.Background(), want)
			if got, _ := TokenFromContext(ctx); got != want {
				errs <- fmt.Errorf("request %d saw %q", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestTokenRedaction(t *testing.T) {
	token := NewToken("secret-value")

	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", token))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", token))
	assert.Equal(t, "credential.Token{[REDACTED]}", fmt.Sprintf("%#v", token))
	assert.Equal(t, "secret-value", token.Value())

	b, err := json.Marshal(struct{ T Token }{token})
	require.NoError(t, err)
	assert.JSONEq(t, `{"T":"[REDACTED]"}`, string(b))
}
