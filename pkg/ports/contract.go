package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreContract runs a suite of tests to verify that a KVStore implementation
// adheres to the defined interface contract.
func RunKVStoreContract(t *testing.T, store KVStore) {
	ctx := context.Background()
	key := "contract-test-key-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		value := []byte(`{"home":true}`)

		err := store.Set(ctx, key, value)
		require.NoError(t, err, "Set should not return error")

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.JSONEq(t, string(value), string(loaded))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte(`{"a":1}`)))
		require.NoError(t, store.Set(ctx, key, []byte(`{"b":2}`)))

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"b":2}`, string(loaded))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Returned value is isolated", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte(`{"x":1}`)))
		loaded, err := store.Get(ctx, key)
		require.NoError(t, err)
		loaded[0] = '['

		again, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1}`, string(again))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte(`{}`)))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Get after Delete should return ErrNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key is not an error")
	})
}
