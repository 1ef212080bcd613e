package globals

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/vm"
)

var _ vm.Globals = (*Table)(nil)

func TestInitSeedsOnce(t *testing.T) {
	g := New(nil)
	require.Equal(t, 5.0, g.Init("combo", 5))
	require.Equal(t, 5.0, g.Init("combo", 9))
	require.Equal(t, 5.0, g.Get("combo"))
}

func TestGetMissing(t *testing.T) {
	g := New(nil)
	require.Equal(t, 0.0, g.Get("nothing"))
	require.False(t, g.Has("nothing"))
	require.Equal(t, 0, g.Len())
}

func TestSetHasDel(t *testing.T) {
	g := New(map[string]float64{"a": 1})
	require.Equal(t, 3.0, g.Set("b", 3))
	require.True(t, g.Has("b"))
	require.True(t, g.Del("b"))
	require.False(t, g.Has("b"))
	require.False(t, g.Del("b"))
	require.Equal(t, []string{"a"}, g.Keys())
}

func TestSeedIsCopied(t *testing.T) {
	seed := map[string]float64{"a": 1}
	g := New(seed)
	g.Set("a", 2)
	require.Equal(t, 1.0, seed["a"])

	values := g.Values()
	values["a"] = 7
	require.Equal(t, 2.0, g.Get("a"))
}

func TestSnapshot(t *testing.T) {
	g := New(map[string]float64{"b": 2, "a": 1})
	snap := g.Snapshot()
	snap.Set("a", 10)
	snap.Del("b")
	require.Equal(t, 1.0, g.Get("a"))
	require.True(t, g.Has("b"))
	require.Equal(t, []string{"a", "b"}, g.Keys())
	require.Equal(t, []string{"a"}, snap.Keys())
}

func TestConcurrentUse(t *testing.T) {
	g := New(nil)
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			g.Init(key, float64(i))
			g.Set(fmt.Sprintf("own%d", i), 1)
			g.Has(key)
		}()
	}
	wg.Wait()
	require.Equal(t, 36, g.Len())
}
