package pebble

import (
	"fmt"

	"github.com/eigerco/lexkv/pkg/log"
)

// logger forwards pebble's informational lines to the configured sink and
// its errors to the engine logger.
type logger struct {
	infof func(format string, args ...interface{})
}

func (l logger) Infof(format string, args ...interface{}) {
	l.infof(format, args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	log.Engine.Error().Str("engine", "pebble").Msg(fmt.Sprintf(format, args...))
}

func (l logger) Fatalf(format string, args ...interface{}) {
	log.Engine.Fatal().Str("engine", "pebble").Msg(fmt.Sprintf(format, args...))
}
