package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inputkit/layoutc/pkg/catalog"
	"github.com/inputkit/layoutc/pkg/layout"
	"github.com/inputkit/layoutc/pkg/registry"
)

func openCatalog(t *testing.T) (*catalog.Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layouts.db")
	c, err := catalog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, path
}

func pad(t *testing.T, name, product string) *layout.Description {
	t.Helper()
	d, err := layout.NewBuilder().WithName(name).WithFormat("PAD").
		WithMatcher(layout.DeviceMatcher{}.With("product", product)).
		AddControl("fire").WithLayout("Button").WithOffset(0).WithBit(3).WithUsages("PrimaryAction").
		Build()
	require.NoError(t, err)
	return d
}

func TestSaveGetList(t *testing.T) {
	ctx := context.Background()
	c, _ := openCatalog(t)

	require.NoError(t, c.Save(ctx, pad(t, "PadA", "A*")))
	require.NoError(t, c.Save(ctx, pad(t, "PadB", "B*")))
	require.NoError(t, c.Save(ctx, pad(t, "pada", "A2*")))

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "PadB", entries[0].Name)
	assert.Equal(t, "pada", entries[1].Name, "replacing moves the entry last")
	assert.Greater(t, entries[1].Seq, entries[0].Seq)
	assert.False(t, entries[0].UpdatedAt.IsZero())

	got, err := c.Get(ctx, "PADA")
	require.NoError(t, err)
	p, ok := got.Matcher.Pattern("product")
	require.True(t, ok)
	assert.Equal(t, "A2*", p)
	require.Len(t, got.Controls, 1)
	assert.Equal(t, uint32(3), *got.Controls[0].Bit)

	require.NoError(t, c.Delete(ctx, "padb"))
	require.NoError(t, c.Delete(ctx, "padb"))
	_, err = c.Get(ctx, "PadB")
	assert.ErrorIs(t, err, layout.ErrUnknownLayout)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	c, path := openCatalog(t)
	require.NoError(t, c.Save(ctx, pad(t, "PadA", "A*")))
	require.NoError(t, c.Close())

	c2, err := catalog.Open(path)
	require.NoError(t, err)
	defer c2.Close()
	entries, err := c2.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadIntoPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := openCatalog(t)
	require.NoError(t, c.Save(ctx, pad(t, "PadB", "Pad*")))
	require.NoError(t, c.Save(ctx, pad(t, "PadA", "Pad*")))

	reg := registry.New()
	n, err := c.LoadInto(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	name, ok := reg.FindMatchingLayout(layout.Descriptor{Product: "PadX"})
	require.True(t, ok)
	assert.Equal(t, "PadA", name)
}

func TestListenerMirrorsRegistry(t *testing.T) {
	ctx := context.Background()
	c, _ := openCatalog(t)
	reg := registry.New()
	reg.Subscribe(c.Listener())

	require.NoError(t, reg.Register(pad(t, "PadA", "A*")))
	require.NoError(t, reg.Register(pad(t, "PadB", "B*")))
	require.NoError(t, reg.Remove("PadA"))

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PadB", entries[0].Name)
}

func TestListenerFollowsRollback(t *testing.T) {
	ctx := context.Background()
	c, _ := openCatalog(t)
	reg := registry.New()
	reg.Subscribe(c.Listener())
	veto := errors.New("rejected")
	reg.Subscribe(registry.ListenerFunc(func(ev registry.ChangeEvent) error {
		if ev.Name == "PadB" && !ev.RollingBack {
			return veto
		}
		return nil
	}))

	require.NoError(t, reg.Register(pad(t, "PadA", "A*")))
	require.ErrorIs(t, reg.Register(pad(t, "PadB", "B*")), veto)

	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PadA", entries[0].Name)
}

func TestListenerSavesBuiltLayouts(t *testing.T) {
	ctx := context.Background()
	c, _ := openCatalog(t)
	reg := registry.New()
	reg.Subscribe(c.Listener())

	require.NoError(t, reg.RegisterBuilder("Lazy", func() (*layout.Description, error) {
		return pad(t, "Other", "L*"), nil
	}))

	got, err := c.Get(ctx, "Lazy")
	require.NoError(t, err)
	assert.Equal(t, "Lazy", got.Name)
	require.Len(t, got.Controls, 1)
	assert.Equal(t, "fire", got.Controls[0].Name)
}

func TestCorruptEntry(t *testing.T) {
	e := catalog.Entry{Name: "Broken", Body: []byte("name: [")}
	_, err := e.Description()
	assert.ErrorIs(t, err, layout.ErrInvalidLayout)
}
