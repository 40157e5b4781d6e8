package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compression names a block compression scheme.
type Compression string

const (
	NoCompression     Compression = "none"
	SnappyCompression Compression = "snappy"
	ZstdCompression   Compression = "zstd"
)

// Options configures how a store is opened. Every field is optional: a nil
// field leaves the engine default in place, a set field is forwarded to the
// engine as is. Backends log options their engine has no equivalent for.
type Options struct {
	CreateIfMissing      *bool        `json:"create_if_missing,omitempty"`
	ErrorIfExists        *bool        `json:"error_if_exists,omitempty"`
	ParanoidChecks       *bool        `json:"paranoid_checks,omitempty"`
	WriteBufferSize      *int         `json:"write_buffer_size,omitempty"`
	MaxOpenFiles         *int         `json:"max_open_files,omitempty"`
	CacheCapacity        *int         `json:"cache_capacity,omitempty"`
	BlockSize            *int         `json:"block_size,omitempty"`
	BlockRestartInterval *int         `json:"block_restart_interval,omitempty"`
	Compression          *Compression `json:"compression,omitempty"`
	BloomFilterBits      *int         `json:"bloom_filter_bits,omitempty"`

	// InfoLog receives the engine's informational log lines.
	InfoLog func(format string, args ...interface{}) `json:"-"`
}

func Bool(b bool) *bool { return &b }

func Int(n int) *int { return &n }

func CompressionOpt(c Compression) *Compression { return &c }

// CheckExistence enforces CreateIfMissing and ErrorIfExists for engines that
// do not enforce them natively. marker is a file the engine always keeps in
// its directory once a store has been created.
func CheckExistence(path, marker string, opts Options) error {
	_, err := os.Stat(filepath.Join(path, marker))
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if exists && opts.ErrorIfExists != nil && *opts.ErrorIfExists {
		return fmt.Errorf("%q: %w", path, ErrStoreExists)
	}
	if !exists && opts.CreateIfMissing != nil && !*opts.CreateIfMissing {
		return fmt.Errorf("%q: %w", path, ErrStoreMissing)
	}
	return nil
}

// Unsupported lists the names of the options that are set in opts but
// missing from supported.
func (o Options) Unsupported(supported ...string) []string {
	set := map[string]bool{
		"create_if_missing":      o.CreateIfMissing != nil,
		"error_if_exists":        o.ErrorIfExists != nil,
		"paranoid_checks":        o.ParanoidChecks != nil,
		"write_buffer_size":      o.WriteBufferSize != nil,
		"max_open_files":         o.MaxOpenFiles != nil,
		"cache_capacity":         o.CacheCapacity != nil,
		"block_size":             o.BlockSize != nil,
		"block_restart_interval": o.BlockRestartInterval != nil,
		"compression":            o.Compression != nil,
		"bloom_filter_bits":      o.BloomFilterBits != nil,
		"info_log":               o.InfoLog != nil,
	}
	for _, name := range supported {
		delete(set, name)
	}
	var out []string
	for _, name := range optionNames {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}

var optionNames = []string{
	"create_if_missing", "error_if_exists", "paranoid_checks",
	"write_buffer_size", "max_open_files", "cache_capacity", "block_size",
	"block_restart_interval", "compression", "bloom_filter_bits", "info_log",
}
