// Package dbtest holds the behavioral test suite every db.KVStore backend
// runs from its own tests.
package dbtest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/eigerco/lexkv/pkg/db"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) db.KVStore

// Run runs the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, d *db.DB)
	}{
		{name: "point_operations", fn: testPointOperations},
		{name: "empty_key", fn: testEmptyKey},
		{name: "write_batch", fn: testWriteBatch},
		{name: "snapshot_isolation", fn: testSnapshotIsolation},
		{name: "reverse_matches_forward", fn: testReverseMatchesForward},
		{name: "clamping", fn: testClamping},
		{name: "prefix", fn: testPrefix},
		{name: "binary_prefix", fn: testBinaryPrefix},
		{name: "read_options", fn: testReadOptions},
		{name: "first_last", fn: testFirstLast},
		{name: "restartable_cursors", fn: testRestartableCursors},
		{name: "concurrent_cursors", fn: testConcurrentCursors},
		{name: "closed_snapshot", fn: testClosedSnapshot},
		{name: "size_and_compact", fn: testSizeAndCompact},
		{name: "digest", fn: testDigest},
		{name: "views_after_close", fn: testViewsAfterClose},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := db.New(newStore(t))
			// Registered first so it runs after the snapshot cleanups
			t.Cleanup(func() { assert.NoError(t, d.Close()) })

			tc.fn(t, d)
		})
	}
}

func put(t *testing.T, d *db.DB, kv ...string) {
	t.Helper()
	require.Zero(t, len(kv)%2, "expected key/value pairs")
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, d.Put([]byte(kv[i]), []byte(kv[i+1])))
	}
}

func snapshot(t *testing.T, d *db.DB) *db.View {
	t.Helper()
	v, err := d.Snapshot()
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func keys(t *testing.T, v *db.View) []string {
	t.Helper()
	ks, err := v.Keys()
	require.NoError(t, err)
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, string(k))
	}
	return out
}

func values(t *testing.T, v *db.View) []string {
	t.Helper()
	vs, err := v.Values()
	require.NoError(t, err)
	out := make([]string, 0, len(vs))
	for _, val := range vs {
		out = append(out, string(val))
	}
	return out
}

func pairs(t *testing.T, v *db.View) []string {
	t.Helper()
	entries, err := v.Entries()
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%q=%q", e.Key, e.Value))
	}
	return out
}

// assertLines compares two listings and reports a unified diff on mismatch.
func assertLines(t *testing.T, expected, actual []string, msgAndArgs ...interface{}) {
	t.Helper()
	if (len(expected) == 0 && len(actual) == 0) || assert.ObjectsAreEqual(expected, actual) {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(expected, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(actual, "\n") + "\n"),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	require.NoError(t, err)
	assert.Fail(t, "listings differ:\n"+diff, msgAndArgs...)
}

func testPointOperations(t *testing.T, d *db.DB) {
	_, err := d.Get([]byte("foo"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	put(t, d, "foo", "bar")
	value, err := d.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), value)

	put(t, d, "foo", "baz")
	value, err = d.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("baz"), value)

	require.NoError(t, d.Delete([]byte("foo")))
	_, err = d.Get([]byte("foo"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, d.Delete([]byte("missing")))

	// values are copied out of the engine
	put(t, d, "k", "v")
	value, err = d.Get([]byte("k"))
	require.NoError(t, err)
	value[0] = 'x'
	again, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), again)
}

func testEmptyKey(t *testing.T, d *db.DB) {
	_, err := d.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.Put([]byte{}, []byte{}))
	value, err := d.Get([]byte{})
	require.NoError(t, err)
	assert.Empty(t, value)

	put(t, d, "a", "1")
	v := snapshot(t, d)
	entries, err := v.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Key)
	assert.Equal(t, []byte("a"), entries[1].Key)

	require.NoError(t, d.Delete([]byte{}))
	_, err = d.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testWriteBatch(t *testing.T, d *db.DB) {
	batch := db.NewWriteBatch()
	batch.Put([]byte("foo"), []byte("bar"))
	batch.Delete([]byte("foo"))
	batch.Put([]byte("qux"), []byte("abc"))
	batch.Delete([]byte("def"))
	batch.Delete([]byte("bar"))
	batch.Put([]byte("foo"), []byte("def"))

	put(t, d, "bar", "ghi", "baz", "jkl", "def", "ghi")
	require.NoError(t, d.Write(batch, false))

	expected := map[string]string{"baz": "jkl", "foo": "def", "qux": "abc"}
	for _, k := range []string{"bar", "baz", "def", "foo", "qux"} {
		value, err := d.Get([]byte(k))
		want, ok := expected[k]
		if !ok {
			assert.ErrorIs(t, err, db.ErrNotFound, k)
			continue
		}
		require.NoError(t, err, k)
		assert.Equal(t, want, string(value), k)
	}

	// the batch is untouched by Write and applies again with sync
	assert.Equal(t, 4, batch.Len())
	put(t, d, "bar", "again")
	require.NoError(t, d.Write(batch, true))
	_, err := d.Get([]byte("bar"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, d.Write(db.NewWriteBatch(), false))
}

func testSnapshotIsolation(t *testing.T, d *db.DB) {
	empty := snapshot(t, d)
	assert.Empty(t, pairs(t, empty))

	require.NoError(t, d.Put([]byte{}, []byte{}))
	put(t, d, "a", "foo", "b", "bar", "ab", "qux", "1", "one")

	v := snapshot(t, d)
	put(t, d, "2", "two")
	// rewriting every visited key must not disturb the snapshot
	err := v.ForEach(func(key, _ []byte) bool {
		require.NoError(t, d.Put(key, key))
		return true
	})
	require.NoError(t, err)

	expected := []string{`""=""`, `"1"="one"`, `"a"="foo"`, `"ab"="qux"`, `"b"="bar"`}
	assertLines(t, expected, pairs(t, v))

	value, err := v.Get([]byte{})
	require.NoError(t, err)
	assert.Empty(t, value)
	value, err = v.Get([]byte("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), value)
	_, err = v.Get([]byte("2"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	reversed := []string{`"b"="bar"`, `"ab"="qux"`, `"a"="foo"`, `"1"="one"`, `""=""`}
	assertLines(t, reversed, pairs(t, v.Reversed()))

	clamped := v.Clamp(db.All().From([]byte("aa")).To([]byte("c")))
	assertLines(t, []string{`"ab"="qux"`, `"b"="bar"`}, pairs(t, clamped))

	clampedRev := v.Reversed().Clamp(db.All().From([]byte("1")).To([]byte("a ")))
	assertLines(t, []string{`"a"="foo"`, `"1"="one"`}, pairs(t, clampedRev))

	assert.Empty(t, pairs(t, empty))
}

func testReverseMatchesForward(t *testing.T, d *db.DB) {
	put(t, d, "a", "1", "aa", "2", "ab", "3", "b", "4", "ba", "5", "c", "6")
	v := snapshot(t, d)

	ranges := []db.Range{
		db.All(),
		db.All().From([]byte("aa")),
		db.All().After([]byte("aa")).Through([]byte("ba")),
		db.All().To([]byte("b")),
		db.PrefixRange([]byte("a")),
		db.PrefixRange([]byte("z")),
		db.All().From([]byte("c")).To([]byte("a")),
	}
	for _, r := range ranges {
		forward := keys(t, v.Clamp(r))
		backward := keys(t, v.Clamp(r).Reversed())
		for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
			backward[i], backward[j] = backward[j], backward[i]
		}
		assertLines(t, forward, backward, r.String())
	}
}

func testClamping(t *testing.T, d *db.DB) {
	var all []string
	batch := db.NewWriteBatch()
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("%d%d", i/10, i%10)
		all = append(all, k)
		batch.Put([]byte(k), []byte{})
	}
	require.NoError(t, d.Write(batch, false))
	v := snapshot(t, d)

	from := func(s string) db.Range { return db.All().From([]byte(s)) }
	after := func(s string) db.Range { return db.All().After([]byte(s)) }

	tests := []struct {
		r        db.Range
		expected []string
	}{
		{db.All(), all},
		{from("20").To([]byte("33")), all[20:33]},
		{from("10").Through([]byte("20")), all[10:21]},
		{db.All().To([]byte("3")), all[0:30]},
		{db.All().To([]byte("31")), all[0:31]},
		{db.All().Through([]byte("3")), all[0:30]},
		{db.All().Through([]byte("31")), all[0:32]},
		{from("31"), all[31:]},
		{from("311"), all[32:]},
		{after("5"), all[50:]},
		{after("50"), all[51:]},
		{from("50").To([]byte("55")), all[50:55]},
		{from("50").Through([]byte("55")), all[50:56]},
		{after("50").To([]byte("55")), all[51:55]},
		{after("50").Through([]byte("55")), all[51:56]},
		{db.All().From(nil).To([]byte("55")), all[0:55]},
		{db.All().After(nil).Through([]byte("55")), all[0:56]},
		{from("50").To(nil), all[50:]},
		{after("50").Through(nil), all[51:]},
		{db.All().From(nil).To(nil), all},
		{from("55").To([]byte("50")), nil},
	}
	for _, tc := range tests {
		assertLines(t, tc.expected, keys(t, v.Clamp(tc.r)), tc.r.String())
	}

	// clamping a clamped view narrows it on both sides
	narrowed := v.Clamp(from("20").To([]byte("60"))).Clamp(after("40").To([]byte("80")))
	assertLines(t, all[41:60], keys(t, narrowed))
	widened := v.Clamp(from("20").To([]byte("30"))).Clamp(db.All())
	assertLines(t, all[20:30], keys(t, widened))
}

func testPrefix(t *testing.T, d *db.DB) {
	put(t, d,
		"/z", "end",
		"/people/foo", "foo",
		"/people/bar", "bar",
		"/pets/cat", "meow",
		"/pets/dog", "barf",
		"/other", "other",
	)
	v := snapshot(t, d)

	assertLines(t, []string{"other", "bar", "foo", "meow", "barf", "end"}, values(t, v))
	assertLines(t, []string{"/people/bar", "/people/foo"}, keys(t, v.Prefix([]byte("/people/"))))

	tests := []struct {
		name     string
		view     *db.View
		expected []string
	}{
		{"people", v.Prefix([]byte("/people/")), []string{"bar", "foo"}},
		{"pets", v.Prefix([]byte("/pets/")), []string{"meow", "barf"}},
		{"peh", v.Prefix([]byte("/pe")), []string{"bar", "foo", "meow", "barf"}},
		{"dehcat0", v.Clamp(db.All().From([]byte("/people/deh")).To([]byte("/pets/cat"))), []string{"foo"}},
		{"dehcat1", v.Clamp(db.All().From([]byte("/people/deh")).To([]byte("/pets/cat "))), []string{"foo", "meow"}},
		{"dehcat2", v.Clamp(db.All().From([]byte("/people/deh")).Through([]byte("/pets/cat"))), []string{"foo", "meow"}},
		{"dehdog", v.Clamp(db.All().From([]byte("/people/deh")).Through([]byte("/pets/dog"))), []string{"foo", "meow", "barf"}},
		{"postcat", v.After([]byte("/pets/cat")), []string{"barf", "end"}},
		{"nested", v.Prefix([]byte("/pe")).Prefix([]byte("/pets/")), []string{"meow", "barf"}},
		{"disjoint", v.Prefix([]byte("/people/")).Prefix([]byte("/pets/")), nil},
		{"reversed", v.Prefix([]byte("/pets/")).Reversed(), []string{"barf", "meow"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertLines(t, tc.expected, values(t, tc.view))
		})
	}
}

// testBinaryPrefix covers prefixes ending in 0xFF, whose upper bound has to
// drop the rolled-over bytes to stay tight.
func testBinaryPrefix(t *testing.T, d *db.DB) {
	stored := [][]byte{
		{0x05, 0xFE},
		{0x05, 0xFF},
		{0x05, 0xFF, 0xFF},
		{0x05, 0xFF, 0xFF, 0x00},
		{0x05, 0xFF, 0xFF, 0xFF, 0x01},
		{0x06},
		{0x06, 0x00, 0x00},
		{0xFF},
		{0xFF, 0xFF, 0x01},
	}
	for _, k := range stored {
		require.NoError(t, d.Put(k, k))
	}
	v := snapshot(t, d)

	tests := []struct {
		prefix   []byte
		expected [][]byte
	}{
		{[]byte{0x05, 0xFF, 0xFF}, stored[2:5]},
		{[]byte{0x05, 0xFF}, stored[1:5]},
		{[]byte{0x05}, stored[0:5]},
		{[]byte{0x06}, stored[5:7]},
		{[]byte{0xFF}, stored[7:9]},
		{[]byte{0xFF, 0xFF}, stored[8:9]},
		{[]byte{}, stored},
	}
	for _, tc := range tests {
		got, err := v.Prefix(tc.prefix).Keys()
		require.NoError(t, err)
		assert.Equal(t, tc.expected, nonNil(got), "prefix %x", tc.prefix)
		for _, k := range got {
			assert.True(t, bytes.HasPrefix(k, tc.prefix), "%x outside prefix %x", k, tc.prefix)
		}
	}
}

func nonNil(ks [][]byte) [][]byte {
	if ks == nil {
		return [][]byte{}
	}
	return ks
}

func testReadOptions(t *testing.T, d *db.DB) {
	put(t, d, "foo", "FOO", "bar", "BAR")
	v := snapshot(t, d)

	foo, err := v.Checksummed().Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("FOO"), foo)

	bar, err := v.Noncaching().Get([]byte("bar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BAR"), bar)

	assertLines(t, []string{"BAR", "FOO"}, values(t, v.Noncaching()))
	assertLines(t, []string{"BAR", "FOO"}, values(t, v.Noncaching().Checksummed()))
	assertLines(t, []string{"FOO", "BAR"}, values(t, v.Checksummed().Reversed()))

	flagged := v.Noncaching().Checksummed().Reversed()
	assert.True(t, flagged.IsNoncaching())
	assert.True(t, flagged.IsChecksummed())
	assert.True(t, flagged.IsReversed())
	assert.False(t, flagged.Reversed().IsReversed())
	assert.False(t, v.IsNoncaching())

	// the flags never change which keys are visible
	_, err = v.Prefix([]byte("f")).Noncaching().Get([]byte("bar"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testFirstLast(t *testing.T, d *db.DB) {
	v := snapshot(t, d)
	_, ok, err := v.First()
	require.NoError(t, err)
	assert.False(t, ok)

	put(t, d, "b", "2", "a", "1", "d", "4", "c", "3")
	v = snapshot(t, d)

	tests := []struct {
		name        string
		view        *db.View
		first, last string
	}{
		{"whole", v, "a", "d"},
		{"reversed", v.Reversed(), "a", "d"},
		{"clamped", v.Clamp(db.All().After([]byte("a")).To([]byte("d"))), "b", "c"},
	}
	for _, tc := range tests {
		first, ok, err := tc.view.First()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tc.first, string(first.Key), tc.name)

		last, ok, err := tc.view.Last()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tc.last, string(last.Key), tc.name)
	}

	_, ok, err = v.Prefix([]byte("z")).Last()
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRestartableCursors(t *testing.T, d *db.DB) {
	put(t, d, "a", "1", "b", "2", "c", "3")
	v := snapshot(t, d)

	c1, err := v.Iter()
	require.NoError(t, err)
	defer c1.Close() //nolint:errcheck
	require.True(t, c1.Next())
	assert.Equal(t, []byte("a"), c1.Key())
	require.True(t, c1.Next())
	assert.Equal(t, []byte("b"), c1.Key())

	// a second cursor starts over and does not move the first
	c2, err := v.Iter()
	require.NoError(t, err)
	defer c2.Close() //nolint:errcheck
	require.True(t, c2.Next())
	assert.Equal(t, []byte("a"), c2.Key())

	require.True(t, c1.Next())
	assert.Equal(t, []byte("c"), c1.Key())
	assert.Equal(t, []byte("3"), c1.Value())
	assert.False(t, c1.Next())
	assert.False(t, c1.Next())
	require.NoError(t, c1.Err())
	require.NoError(t, c1.Close())
	require.NoError(t, c1.Close())
}

func testConcurrentCursors(t *testing.T, d *db.DB) {
	batch := db.NewWriteBatch()
	var expected []string
	for i := 0; i < 200; i++ {
		k := fmt.Sprintf("key-%03d", i)
		expected = append(expected, k)
		batch.Put([]byte(k), []byte(k))
	}
	require.NoError(t, d.Write(batch, false))
	v := snapshot(t, d)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		view := v
		if i%2 == 1 {
			view = v.Reversed()
		}
		g.Go(func() error {
			ks, err := view.Keys()
			if err != nil {
				return err
			}
			got := make([]string, len(ks))
			for j, k := range ks {
				got[j] = string(k)
			}
			if view.IsReversed() {
				sort.Strings(got)
			}
			if !assert.ObjectsAreEqual(expected, got) {
				return fmt.Errorf("cursor saw %d keys, expected %d", len(got), len(expected))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func testClosedSnapshot(t *testing.T, d *db.DB) {
	put(t, d, "a", "1")
	v, err := d.Snapshot()
	require.NoError(t, err)
	derived := v.Prefix([]byte("a"))

	require.NoError(t, derived.Close())
	require.NoError(t, v.Close())

	_, err = v.Get([]byte("a"))
	assert.ErrorIs(t, err, db.ErrSnapshotClosed)
	_, err = v.Iter()
	assert.ErrorIs(t, err, db.ErrSnapshotClosed)
	_, err = derived.Keys()
	assert.ErrorIs(t, err, db.ErrSnapshotClosed)
}

func testSizeAndCompact(t *testing.T, d *db.DB) {
	size, err := d.ApproximateSize(db.All())
	require.NoError(t, err)
	assert.Zero(t, size)

	batch := db.NewWriteBatch()
	for i := 0; i < 500; i++ {
		batch.Put([]byte(fmt.Sprintf("k%04d", i)), bytes.Repeat([]byte{byte(i)}, 64))
	}
	require.NoError(t, d.Write(batch, true))

	require.NoError(t, d.Compact(db.All()))
	require.NoError(t, d.Compact(db.All().From([]byte("k0100")).To([]byte("k0200"))))
	require.NoError(t, d.Compact(db.All().From([]byte("z")).To([]byte("a"))))

	sizes, err := d.ApproximateSizes(db.All(), db.PrefixRange([]byte("k01")), db.PrefixRange([]byte("x")))
	require.NoError(t, err)
	require.Len(t, sizes, 3)
	assert.GreaterOrEqual(t, sizes[0], sizes[1])

	value, err := d.Get([]byte("k0150"))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{150}, 64), value)
}

func testDigest(t *testing.T, d *db.DB) {
	put(t, d, "a", "1", "b", "2")
	before := snapshot(t, d)
	put(t, d, "c", "3")
	after := snapshot(t, d)

	d1, err := before.Digest()
	require.NoError(t, err)
	d2, err := after.Clamp(db.All().To([]byte("c"))).Reversed().Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	d3, err := after.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	// length framing keeps "m"="ab" apart from "ma"="b"
	put(t, d, "m", "ab")
	split, err := snapshot(t, d).Prefix([]byte("m")).Digest()
	require.NoError(t, err)
	require.NoError(t, d.Delete([]byte("m")))
	put(t, d, "ma", "b")
	joined, err := snapshot(t, d).Prefix([]byte("m")).Digest()
	require.NoError(t, err)
	assert.NotEqual(t, split, joined)
}

func testViewsAfterClose(t *testing.T, d *db.DB) {
	put(t, d, "a", "1", "b", "2")
	v, err := d.Snapshot()
	require.NoError(t, err)
	c, err := v.Iter()
	require.NoError(t, err)
	require.True(t, c.Next())

	require.NoError(t, d.Close())

	_, err = v.Get([]byte("a"))
	assert.ErrorIs(t, err, db.ErrClosed)
	_, err = v.Keys()
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.False(t, c.Next())
	assert.ErrorIs(t, c.Close(), db.ErrClosed)
	assert.NoError(t, v.Close())

	batch := db.NewWriteBatch()
	batch.Put([]byte("c"), []byte("3"))
	assert.ErrorIs(t, d.Write(batch, false), db.ErrClosed)
}
