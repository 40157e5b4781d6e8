package pebble

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

var supportedOptions = []string{
	"create_if_missing", "error_if_exists", "write_buffer_size",
	"max_open_files", "cache_capacity", "block_size", "block_restart_interval",
	"compression", "bloom_filter_bits", "info_log",
}

// pebbleOptions maps store options onto pebble's. The returned cache, if any,
// holds a reference the caller must drop after opening.
func pebbleOptions(o db.Options) (*pebble.Options, *pebble.Cache) {
	opts := &pebble.Options{}
	if o.CreateIfMissing != nil {
		opts.ErrorIfNotExists = !*o.CreateIfMissing
	}
	if o.ErrorIfExists != nil {
		opts.ErrorIfExists = *o.ErrorIfExists
	}
	if o.WriteBufferSize != nil {
		setNumeric(&opts.MemTableSize, *o.WriteBufferSize)
	}
	if o.MaxOpenFiles != nil {
		opts.MaxOpenFiles = *o.MaxOpenFiles
	}

	var cache *pebble.Cache
	if o.CacheCapacity != nil {
		cache = pebble.NewCache(int64(*o.CacheCapacity))
		opts.Cache = cache
	}

	// A single level entry applies to every level of the tree
	level := pebble.LevelOptions{}
	if o.BlockSize != nil {
		level.BlockSize = *o.BlockSize
	}
	if o.BlockRestartInterval != nil {
		level.BlockRestartInterval = *o.BlockRestartInterval
	}
	if o.Compression != nil {
		level.Compression = compression(*o.Compression)
	}
	if o.BloomFilterBits != nil {
		level.FilterPolicy = bloom.FilterPolicy(*o.BloomFilterBits)
	}
	opts.Levels = []pebble.LevelOptions{level}

	if o.InfoLog != nil {
		opts.Logger = logger{infof: o.InfoLog}
	}

	if unsupported := o.Unsupported(supportedOptions...); len(unsupported) > 0 {
		log.Engine.Warn().Str("engine", "pebble").Strs("options", unsupported).Msg("ignoring unsupported options")
	}
	return opts, cache
}

func compression(c db.Compression) pebble.Compression {
	switch c {
	case db.NoCompression:
		return pebble.NoCompression
	case db.ZstdCompression:
		return pebble.ZstdCompression
	default:
		return pebble.SnappyCompression
	}
}

func setNumeric[T ~int | ~int64 | ~uint64](dst *T, n int) {
	*dst = T(n)
}
