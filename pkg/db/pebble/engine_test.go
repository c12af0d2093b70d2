package pebble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/tablestore/pkg/db"
)

func diskOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.Dir = filepath.Join(t.TempDir(), "nested", "db")
	return opts
}

func TestOpenCreatesDirectoryAndPersists(t *testing.T) {
	opts := diskOptions(t)

	e, err := Open(opts, []db.Partition{partA})
	require.NoError(t, err)
	require.NoError(t, mustPartition(t, e, partA.Name).Put([]byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	info, err := os.Stat(opts.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A partition added on a later run is created next to the existing one.
	e, err = Open(opts, []db.Partition{partA, partB})
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	v, err := mustPartition(t, e, partA.Name).Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = mustPartition(t, e, partB.Name).Get([]byte("k"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestOpenRejectsRenamedPartition(t *testing.T) {
	opts := diskOptions(t)

	e, err := Open(opts, []db.Partition{partA})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = Open(opts, []db.Partition{{Name: "renamed", ID: partA.ID}})
	assert.ErrorIs(t, err, db.ErrStorageInit)
	assert.ErrorIs(t, err, ErrPartitionConflict)

	// the failed open released the directory lock
	e, err = Open(opts, []db.Partition{partA})
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestOpenRejectsMovedPartition(t *testing.T) {
	opts := diskOptions(t)

	e, err := Open(opts, []db.Partition{partA})
	require.NoError(t, err)
	require.NoError(t, mustPartition(t, e, partA.Name).Put([]byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	// same name under a new id would orphan the stored keys
	_, err = Open(opts, []db.Partition{{Name: partA.Name, ID: []byte("moved")}})
	assert.ErrorIs(t, err, db.ErrStorageInit)
	assert.ErrorIs(t, err, ErrPartitionConflict)

	e, err = Open(opts, []db.Partition{partA, partB})
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck
	v, err := mustPartition(t, e, partA.Name).Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestOpenInitErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	tests := []struct {
		name       string
		opts       func() Options
		partitions []db.Partition
		cause      error
	}{
		{
			name: "duplicate_name",
			opts: func() Options {
				o := DefaultOptions()
				o.InMemory = true
				return o
			},
			partitions: []db.Partition{partA, {Name: partA.Name, ID: []byte("z")}},
			cause:      ErrDuplicatePartition,
		},
		{
			name: "duplicate_id",
			opts: func() Options {
				o := DefaultOptions()
				o.InMemory = true
				return o
			},
			partitions: []db.Partition{partA, {Name: "other", ID: partA.ID}},
			cause:      ErrDuplicatePartition,
		},
		{
			name: "empty_id",
			opts: func() Options {
				o := DefaultOptions()
				o.InMemory = true
				return o
			},
			partitions: []db.Partition{{Name: "empty"}},
		},
		{
			name: "unknown_compression",
			opts: func() Options {
				o := DefaultOptions()
				o.InMemory = true
				o.Compression = "gzip"
				return o
			},
			partitions: []db.Partition{partA},
			cause:      ErrUnknownCompression,
		},
		{
			name: "directory_not_creatable",
			opts: func() Options {
				o := DefaultOptions()
				o.Dir = filepath.Join(file, "db")
				return o
			},
			partitions: []db.Partition{partA},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Open(tc.opts(), tc.partitions)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, db.ErrStorageInit)
			if tc.cause != nil {
				assert.ErrorIs(t, err, tc.cause)
			}
		})
	}
}

func TestEngineClose(t *testing.T) {
	e := newTestEngine(t)
	a := mustPartition(t, e, partA.Name)
	batch := a.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))

	require.NoError(t, e.Close())

	// Test operations after close
	_, err := a.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = a.Has([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = a.Put([]byte("key"), []byte("value"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = a.Delete([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = a.NewIterator()
	assert.ErrorIs(t, err, db.ErrClosed)

	assert.ErrorIs(t, batch.Commit(), db.ErrClosed)
	assert.NoError(t, batch.Close())

	_, err = e.Metrics()
	assert.ErrorIs(t, err, db.ErrClosed)

	// Double close should not error
	assert.NoError(t, e.Close())
}

func TestEngineCloseWithOpenIterator(t *testing.T) {
	e := newTestEngine(t)
	a := mustPartition(t, e, partA.Name)
	for _, k := range []string{"k1", "k2", "k3"} {
		require.NoError(t, a.Put([]byte(k), []byte("v")))
	}

	iter, err := a.NewIterator()
	require.NoError(t, err)
	require.True(t, iter.First())
	assert.Equal(t, []byte("k1"), iter.Key())

	// the engine closes the iterator itself, the db must not report a leak
	require.NoError(t, e.Close())

	assert.False(t, iter.Valid())
	assert.False(t, iter.Next())
	assert.False(t, iter.SeekGE([]byte("k2")))
	assert.Nil(t, iter.Key())
	_, err = iter.Value()
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.ErrorIs(t, iter.Error(), db.ErrClosed)
	assert.NoError(t, iter.Close())
}

func TestEngineCloseAfterIteratorClosed(t *testing.T) {
	e := newTestEngine(t)
	a := mustPartition(t, e, partA.Name)

	iter, err := a.NewIterator()
	require.NoError(t, err)
	require.NoError(t, iter.Close())
	require.NoError(t, iter.Close())

	require.NoError(t, e.Close())
	assert.NoError(t, iter.Error())
}

func TestEnginePartitions(t *testing.T) {
	e := newTestEngine(t)

	handles := e.Partitions()
	require.Len(t, handles, 2)
	assert.Equal(t, partA.Name, handles[0].Name())
	assert.Equal(t, partB, handles[1].Definition())

	_, err := e.Partition("missing")
	assert.ErrorIs(t, err, ErrUnknownPartition)

	m, err := e.Metrics()
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestOpenWithoutCompressionOrFilters(t *testing.T) {
	opts := Options{InMemory: true, Compression: CompressionOff}
	e, err := Open(opts, []db.Partition{partA})
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck

	a := mustPartition(t, e, partA.Name)
	require.NoError(t, a.Put([]byte("k"), []byte("v")))
	v, err := a.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("off")
	require.NoError(t, err)
	assert.Equal(t, CompressionOff, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionFastBlock, c)

	_, err = ParseCompression("zip")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
