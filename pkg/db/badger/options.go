package badger

import (
	"fmt"

	"github.com/dgraph-io/badger"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

var supportedOptions = []string{
	"create_if_missing", "error_if_exists", "write_buffer_size", "info_log",
}

func badgerOptions(path string, o db.Options) badger.Options {
	opts := badger.DefaultOptions(path)
	opts.Logger = logger{infof: o.InfoLog}
	if o.WriteBufferSize != nil {
		opts.MaxTableSize = int64(*o.WriteBufferSize)
	}
	if unsupported := o.Unsupported(supportedOptions...); len(unsupported) > 0 {
		log.Engine.Warn().Str("engine", "badger").Strs("options", unsupported).Msg("ignoring unsupported options")
	}
	return opts
}

// logger sends badger's log lines to the engine logger, and its info lines
// to the configured sink when there is one.
type logger struct {
	infof func(format string, args ...interface{})
}

func (l logger) Errorf(format string, args ...interface{}) {
	log.Engine.Error().Str("engine", "badger").Msg(trim(format, args))
}

func (l logger) Warningf(format string, args ...interface{}) {
	log.Engine.Warn().Str("engine", "badger").Msg(trim(format, args))
}

func (l logger) Infof(format string, args ...interface{}) {
	if l.infof != nil {
		l.infof(format, args...)
		return
	}
	log.Engine.Debug().Str("engine", "badger").Msg(trim(format, args))
}

func (l logger) Debugf(format string, args ...interface{}) {
	log.Engine.Trace().Str("engine", "badger").Msg(trim(format, args))
}

// trim formats a badger log line, which usually ends in a newline.
func trim(format string, args []interface{}) string {
	msg := fmt.Sprintf(format, args...)
	for len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	return msg
}
