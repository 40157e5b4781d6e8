package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

var errUsage = errors.New("wrong number of arguments")

// rangeFlags registers the range flags shared by scan, size, compact and
// digest.
type rangeFlags struct {
	from, after, to, through, prefix keyFlag
}

func newRangeFlags(fs *flag.FlagSet, enc *encoding) *rangeFlags {
	r := &rangeFlags{}
	for _, f := range []struct {
		name  string
		value *keyFlag
		usage string
	}{
		{"from", &r.from, "inclusive lower bound"},
		{"after", &r.after, "exclusive lower bound"},
		{"to", &r.to, "exclusive upper bound"},
		{"through", &r.through, "inclusive upper bound"},
		{"prefix", &r.prefix, "only keys starting with this prefix"},
	} {
		f.value.enc = enc
		fs.Var(f.value, f.name, f.usage)
	}
	return r
}

func (r *rangeFlags) Range() (db.Range, error) {
	if r.from.set && r.after.set {
		return db.Range{}, errors.New("-from and -after are exclusive")
	}
	if r.to.set && r.through.set {
		return db.Range{}, errors.New("-to and -through are exclusive")
	}
	rng := db.All()
	switch {
	case r.from.set:
		rng = rng.From(r.from.key)
	case r.after.set:
		rng = rng.After(r.after.key)
	}
	switch {
	case r.to.set:
		rng = rng.To(r.to.key)
	case r.through.set:
		rng = rng.Through(r.through.key)
	}
	if r.prefix.set {
		rng = rng.Prefix(r.prefix.key)
	}
	return rng, nil
}

func parseRange(name string, e *env, args []string) (db.Range, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	rf := newRangeFlags(fs, &e.enc)
	if err := fs.Parse(args); err != nil {
		return db.Range{}, err
	}
	if fs.NArg() != 0 {
		return db.Range{}, fmt.Errorf("%s: %w", name, errUsage)
	}
	return rf.Range()
}

func cmdGet(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get KEY: %w", errUsage)
	}
	key, err := e.enc.decode(args[0])
	if err != nil {
		return err
	}
	value, err := e.db.Get(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, e.enc.encode(value))
	return err
}

func cmdPut(e *env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("put KEY VALUE: %w", errUsage)
	}
	key, err := e.enc.decode(args[0])
	if err != nil {
		return err
	}
	value, err := e.enc.decode(args[1])
	if err != nil {
		return err
	}
	return e.db.Put(key, value)
}

func cmdDel(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("del KEY: %w", errUsage)
	}
	key, err := e.enc.decode(args[0])
	if err != nil {
		return err
	}
	return e.db.Delete(key)
}

func cmdScan(e *env, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	rf := newRangeFlags(fs, &e.enc)
	reverse := fs.Bool("reverse", false, "iterate from the greatest key")
	limit := fs.Int("limit", 0, "stop after N entries (0 means no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rng, err := rf.Range()
	if err != nil {
		return err
	}

	view, err := e.db.Snapshot()
	if err != nil {
		return err
	}
	defer view.Close() //nolint:errcheck
	view = view.Clamp(rng)
	if *reverse {
		view = view.Reversed()
	}

	var (
		n        int
		writeErr error
	)
	err = view.ForEach(func(key, value []byte) bool {
		if _, writeErr = printEntry(e.out, e.enc, key, value); writeErr != nil {
			return false
		}
		n++
		return *limit <= 0 || n < *limit
	})
	if err != nil {
		return err
	}
	log.CLI.Debug().Int("entries", n).Stringer("interval", view.Interval()).Msg("scanned")
	return writeErr
}

func printEntry(w io.Writer, enc encoding, key, value []byte) (int, error) {
	return fmt.Fprintf(w, "%s\t%s\n", enc.encode(key), enc.encode(value))
}

func cmdSize(e *env, args []string) error {
	rng, err := parseRange("size", e, args)
	if err != nil {
		return err
	}
	n, err := e.db.ApproximateSize(rng)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, n)
	return err
}

func cmdCompact(e *env, args []string) error {
	rng, err := parseRange("compact", e, args)
	if err != nil {
		return err
	}
	return e.db.Compact(rng)
}

func cmdDigest(e *env, args []string) error {
	rng, err := parseRange("digest", e, args)
	if err != nil {
		return err
	}
	view, err := e.db.Snapshot()
	if err != nil {
		return err
	}
	defer view.Close() //nolint:errcheck
	sum, err := view.Clamp(rng).Digest()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%x\n", sum)
	return err
}
