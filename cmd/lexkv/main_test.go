package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/lexkv/pkg/db"
)

// lexkv runs the command line against a store kept under dir.
func lexkv(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	global := []string{"-engine", "pebble", "-path", dir, "-log-level", "error"}
	err := run(append(global, args...), &out)
	return out.String(), err
}

func writeOps(t *testing.T, ops []fileOp) string {
	t.Helper()
	data, err := json.Marshal(ops)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ops.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestCommands(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}} {
		_, err := lexkv(t, dir, "put", kv[0], kv[1])
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "get", args: []string{"get", "b"}, want: "2\n"},
		{name: "scan", args: []string{"scan"}, want: "a\t1\nb\t2\nc\t3\nd\t4\n"},
		{name: "scan_range", args: []string{"scan", "-after", "a", "-through", "c"}, want: "b\t2\nc\t3\n"},
		{name: "scan_reverse_limit", args: []string{"scan", "-reverse", "-limit", "2"}, want: "d\t4\nc\t3\n"},
		{name: "scan_prefix", args: []string{"scan", "-prefix", "c"}, want: "c\t3\n"},
		{name: "scan_empty", args: []string{"scan", "-from", "c", "-to", "c"}, want: ""},
		{name: "hex", args: []string{"-hex", "scan", "-from", "63"}, want: "63\t33\n64\t34\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := lexkv(t, dir, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}

	_, err := lexkv(t, dir, "del", "b")
	require.NoError(t, err)
	_, err = lexkv(t, dir, "get", "b")
	assert.ErrorIs(t, err, db.ErrNotFound)

	sum, err := lexkv(t, dir, "digest", "-prefix", "a")
	require.NoError(t, err)
	assert.Len(t, sum, 65)

	_, err = lexkv(t, dir, "size")
	require.NoError(t, err)
	_, err = lexkv(t, dir, "compact", "-to", "c")
	require.NoError(t, err)
}

func TestApply(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		_, err := lexkv(t, dir, "put", kv[0], kv[1])
		require.NoError(t, err)
	}
	ops := writeOps(t, []fileOp{
		{Op: "put", Key: "b", Value: "20"},
		{Op: "del", Key: "c"},
		{Op: "put", Key: "bb", Value: "5"},
	})

	diff, err := lexkv(t, dir, "apply", "-dry-run", ops)
	require.NoError(t, err)
	assert.Equal(t, `--- current
+++ batch
@@ -1,2 +1,2 @@
-b	2
-c	3
+b	20
+bb	5
`, diff)

	out, err := lexkv(t, dir, "scan")
	require.NoError(t, err)
	assert.Equal(t, "a\t1\nb\t2\nc\t3\n", out, "dry run must not write")

	_, err = lexkv(t, dir, "apply", ops)
	require.NoError(t, err)
	out, err = lexkv(t, dir, "scan")
	require.NoError(t, err)
	assert.Equal(t, "a\t1\nb\t20\nbb\t5\n", out)

	bad := writeOps(t, []fileOp{{Op: "merge", Key: "a"}})
	_, err = lexkv(t, dir, "apply", bad)
	assert.ErrorContains(t, err, `unknown op "merge"`)
}

func TestMerge(t *testing.T) {
	entries := []db.Entry{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("c"), Value: []byte("3")},
	}
	b := db.NewWriteBatch()
	b.Put([]byte("b"), []byte("2"))
	b.Delete([]byte("a"))
	b.Put([]byte("d"), []byte("4"))

	got := merge(entries, b.Ops())
	assert.Equal(t, []db.Entry{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("d"), Value: []byte("4")},
	}, got)
}

func TestUsageErrors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	tests := []struct {
		name string
		args []string
	}{
		{name: "get_without_key", args: []string{"get"}},
		{name: "put_without_value", args: []string{"put", "k"}},
		{name: "from_and_after", args: []string{"scan", "-from", "a", "-after", "b"}},
		{name: "to_and_through", args: []string{"size", "-to", "a", "-through", "b"}},
		{name: "stray_argument", args: []string{"digest", "x"}},
		{name: "unknown_command", args: []string{"merge"}},
		{name: "bad_hex", args: []string{"-hex", "get", "zz"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lexkv(t, dir, tc.args...)
			assert.Error(t, err)
		})
	}

	err := run(nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}
