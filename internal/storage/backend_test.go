package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// runClientContract exercises the behaviour every backend must share.
func runClientContract(t *testing.T, c *Client) {
	ctx := context.Background()

	t.Run("PutThenGet", func(t *testing.T) {
		created, err := c.Put(ctx, "1.1.1.1:8080", "3")
		require.NoError(t, err)
		require.True(t, created)

		created, err = c.Put(ctx, "1.1.1.1:8080", "5")
		require.NoError(t, err)
		require.False(t, created, "overwrite must not report a new field")

		v, ok, err := c.Get(ctx, "1.1.1.1:8080")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "5", v)

		_, err = c.Add(ctx, "2.2.2.2:3128")
		require.NoError(t, err)
		v, ok, err = c.Get(ctx, "2.2.2.2:3128")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "1", v)
	})

	t.Run("EmptyMarker", func(t *testing.T) {
		_, err := c.Put(ctx, "9.9.9.9:80", "")
		require.NoError(t, err)
		v, ok, err := c.Get(ctx, "9.9.9.9:80")
		require.NoError(t, err)
		require.True(t, ok)
		require.Empty(t, v)
		require.NoError(t, c.Delete(ctx, "9.9.9.9:80"))
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		_, err := c.Put(ctx, "3.3.3.3:80", "1")
		require.NoError(t, err)

		require.NoError(t, c.Delete(ctx, "3.3.3.3:80"))
		require.NoError(t, c.Delete(ctx, "3.3.3.3:80"))
		require.NoError(t, c.Delete(ctx, "never-existed:1"))

		_, ok, err := c.Get(ctx, "3.3.3.3:80")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("ExistsMatchesGetAll", func(t *testing.T) {
		all, err := c.GetAll(ctx)
		require.NoError(t, err)
		for k := range all {
			ok, err := c.Exists(ctx, k)
			require.NoError(t, err)
			require.True(t, ok, k)
		}
		ok, err := c.Exists(ctx, "4.4.4.4:1")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Update", func(t *testing.T) {
		_, err := c.Put(ctx, "5.5.5.5:80", "10")
		require.NoError(t, err)

		require.NoError(t, c.Update(ctx, "5.5.5.5:80", -1))
		require.NoError(t, c.Update(ctx, "5.5.5.5:80", 4))
		v, _, err := c.Get(ctx, "5.5.5.5:80")
		require.NoError(t, err)
		require.Equal(t, "13", v)

		_, err = c.Put(ctx, "6.6.6.6:80", "not-a-number")
		require.NoError(t, err)
		err = c.Update(ctx, "6.6.6.6:80", 1)
		require.ErrorIs(t, err, ErrNotInteger)

		// one past the largest int64
		_, err = c.Put(ctx, "6.6.6.7:80", "9223372036854775808")
		require.NoError(t, err)
		err = c.Update(ctx, "6.6.6.7:80", 1)
		require.ErrorIs(t, err, ErrNotInteger)
	})

	t.Run("SizeMatchesGetAll", func(t *testing.T) {
		all, err := c.GetAll(ctx)
		require.NoError(t, err)
		n, err := c.GetSize(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(len(all)), n)
	})

	t.Run("PopSingle", func(t *testing.T) {
		first := c.Table()
		c.ChangeTable(first + "_single")
		defer c.ChangeTable(first)

		_, err := c.Put(ctx, "7.7.7.7:80", "2")
		require.NoError(t, err)

		e, err := c.Pop(ctx)
		require.NoError(t, err)
		require.NotNil(t, e)
		require.Equal(t, "7.7.7.7:80", e.Proxy)
		require.NotNil(t, e.Value)
		require.Equal(t, "2", *e.Value)

		n, err := c.GetSize(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
		_, ok, err := c.Get(ctx, "7.7.7.7:80")
		require.NoError(t, err)
		require.False(t, ok)

		e, err = c.Pop(ctx)
		require.NoError(t, err)
		require.Nil(t, e)
	})

	t.Run("ChangeTableIsolates", func(t *testing.T) {
		first := c.Table()
		before, err := c.GetAll(ctx)
		require.NoError(t, err)

		c.ChangeTable(first + "_other")
		_, err = c.Put(ctx, "8.8.8.8:53", "1")
		require.NoError(t, err)
		ok, err := c.Exists(ctx, "1.1.1.1:8080")
		require.NoError(t, err)
		require.False(t, ok)

		c.ChangeTable(first)
		after, err := c.GetAll(ctx)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("ConcurrentPopNeverDuplicates", func(t *testing.T) {
		first := c.Table()
		c.ChangeTable(first + "_concurrent")
		defer c.ChangeTable(first)

		const entries = 40
		for i := 0; i < entries; i++ {
			_, err := c.Put(ctx, fmt.Sprintf("10.0.0.%d:80", i), "1")
			require.NoError(t, err)
		}

		var (
			mu   sync.Mutex
			seen = make(map[string]int)
			wg   sync.WaitGroup
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					e, err := c.Pop(ctx)
					if err != nil {
						t.Errorf("Pop failed: %v", err)
						return
					}
					if e == nil {
						return
					}
					mu.Lock()
					seen[e.Proxy]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Len(t, seen, entries)
		for k, n := range seen {
			require.Equal(t, 1, n, "proxy %s popped more than once", k)
		}
	})
}
