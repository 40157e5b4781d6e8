package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

var supportedOptions = []string{
	"create_if_missing", "error_if_exists", "paranoid_checks",
	"write_buffer_size", "max_open_files", "cache_capacity", "block_size",
	"block_restart_interval", "compression", "bloom_filter_bits",
}

func levelOptions(o db.Options) *opt.Options {
	opts := &opt.Options{}
	if o.CreateIfMissing != nil {
		opts.ErrorIfMissing = !*o.CreateIfMissing
	}
	if o.ErrorIfExists != nil {
		opts.ErrorIfExist = *o.ErrorIfExists
	}
	if o.ParanoidChecks != nil && *o.ParanoidChecks {
		opts.Strict = opt.StrictAll
	}
	if o.WriteBufferSize != nil {
		opts.WriteBuffer = *o.WriteBufferSize
	}
	if o.MaxOpenFiles != nil {
		opts.OpenFilesCacheCapacity = *o.MaxOpenFiles
	}
	if o.CacheCapacity != nil {
		opts.BlockCacheCapacity = *o.CacheCapacity
	}
	if o.BlockSize != nil {
		opts.BlockSize = *o.BlockSize
	}
	if o.BlockRestartInterval != nil {
		opts.BlockRestartInterval = *o.BlockRestartInterval
	}
	if o.Compression != nil {
		opts.Compression = compression(*o.Compression)
	}
	if o.BloomFilterBits != nil {
		opts.Filter = filter.NewBloomFilter(*o.BloomFilterBits)
	}

	if unsupported := o.Unsupported(supportedOptions...); len(unsupported) > 0 {
		log.Engine.Warn().Str("engine", "leveldb").Strs("options", unsupported).Msg("ignoring unsupported options")
	}
	return opts
}

func compression(c db.Compression) opt.Compression {
	switch c {
	case db.NoCompression:
		return opt.NoCompression
	case db.SnappyCompression:
		return opt.SnappyCompression
	default:
		log.Engine.Warn().Str("engine", "leveldb").Str("compression", string(c)).Msg("unsupported compression, using snappy")
		return opt.SnappyCompression
	}
}

func readOptions(ro db.ReadOptions) *opt.ReadOptions {
	out := &opt.ReadOptions{DontFillCache: ro.NoCache}
	if ro.VerifyChecksums {
		out.Strict = opt.StrictBlockChecksum
	}
	return out
}
