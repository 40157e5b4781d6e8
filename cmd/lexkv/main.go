// lexkv inspects and edits a store from the command line.
//
//	lexkv -engine pebble -path ./data put user/1 alice
//	lexkv -path ./data scan -prefix user/ -limit 10
//	lexkv -path ./data apply -dry-run ops.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eigerco/lexkv/internal/config"
	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

const usage = `usage: lexkv [flags] <command> [args]

commands:
  get KEY                 print the value stored under KEY
  put KEY VALUE           store VALUE under KEY
  del KEY                 remove KEY
  scan [range flags]      list entries (-reverse, -limit N)
  size [range flags]      estimate the storage used by a range
  compact [range flags]   compact a range
  digest [range flags]    blake2b-256 of the entries of a range
  apply [-dry-run] FILE   apply a JSON list of ops atomically

range flags: -from K -after K -to K -through K -prefix P
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "lexkv: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command gets: the opened store and how to read and print
// keys and values.
type env struct {
	db  *db.DB
	enc encoding
	out io.Writer
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"get":     cmdGet,
	"put":     cmdPut,
	"del":     cmdDel,
	"scan":    cmdScan,
	"size":    cmdSize,
	"compact": cmdCompact,
	"digest":  cmdDigest,
	"apply":   cmdApply,
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("lexkv", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "JSON config file")
	engine := fs.String("engine", "", "storage engine: pebble, leveldb, badger or memory")
	path := fs.String("path", "", "store directory")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	hexMode := fs.Bool("hex", false, "read and print keys and values as hex")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *engine != "" {
		cfg.Engine = *engine
	}
	if *path != "" {
		cfg.Path = *path
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	logOpts, err := cfg.LogOptions()
	if err != nil {
		return err
	}
	logOpts.Output = os.Stderr
	log.Init(logOpts)
	cfg.Options.InfoLog = log.Printf(log.Engine)

	store, err := cfg.Open()
	if err != nil {
		return err
	}
	log.CLI.Debug().Str("command", name).Str("engine", cfg.Engine).Msg("running")

	err = cmd(&env{db: store, enc: encoding{hex: *hexMode}, out: out}, rest)
	if cerr := store.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	return err
}
