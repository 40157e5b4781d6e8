package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/log"
)

// fileOp is one entry of an apply file:
//
//	[{"op": "put", "key": "a", "value": "1"}, {"op": "del", "key": "b"}]
type fileOp struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

func loadBatch(path string, enc encoding) (*db.WriteBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ops []fileOp
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	b := db.NewWriteBatch()
	for i, op := range ops {
		key, err := enc.decode(op.Key)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		switch op.Op {
		case "put":
			value, err := enc.decode(op.Value)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			b.Put(key, value)
		case "del", "delete":
			b.Delete(key)
		default:
			return nil, fmt.Errorf("op %d: unknown op %q", i, op.Op)
		}
	}
	return b, nil
}

func cmdApply(e *env, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "print the changes as a diff without writing them")
	sync := fs.Bool("sync", false, "flush the batch to stable storage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("apply FILE: %w", errUsage)
	}
	b, err := loadBatch(fs.Arg(0), e.enc)
	if err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	if *dryRun {
		diff, err := preview(e, b)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(e.out, diff)
		return err
	}
	if err := e.db.Write(b, *sync); err != nil {
		return err
	}
	log.CLI.Info().Int("ops", b.Len()).Msg("batch applied")
	return nil
}

// preview renders the entries between the smallest and the greatest key of b
// as they are now and as they would be after writing b, as a unified diff.
func preview(e *env, b *db.WriteBatch) (string, error) {
	ops := b.Ops()
	view, err := e.db.Snapshot()
	if err != nil {
		return "", err
	}
	defer view.Close() //nolint:errcheck

	span := db.All().From(ops[0].Key).Through(ops[len(ops)-1].Key)
	before, err := view.Clamp(span).Entries()
	if err != nil {
		return "", err
	}
	after := merge(before, ops)

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        listing(e.enc, before),
		B:        listing(e.enc, after),
		FromFile: "current",
		ToFile:   "batch",
		Context:  3,
	})
}

// merge overlays the sorted ops onto the sorted entries.
func merge(entries []db.Entry, ops []db.Op) []db.Entry {
	out := make([]db.Entry, 0, len(entries)+len(ops))
	i, j := 0, 0
	for i < len(entries) || j < len(ops) {
		var c int
		switch {
		case i == len(entries):
			c = 1
		case j == len(ops):
			c = -1
		default:
			c = db.Compare(entries[i].Key, ops[j].Key)
		}
		if c < 0 {
			out = append(out, entries[i])
			i++
			continue
		}
		if !ops[j].Delete {
			out = append(out, db.Entry{Key: ops[j].Key, Value: ops[j].Value})
		}
		if c == 0 {
			i++
		}
		j++
	}
	return out
}

func listing(enc encoding, entries []db.Entry) []string {
	lines := make([]string, len(entries))
	for i, en := range entries {
		lines[i] = enc.encode(en.Key) + "\t" + enc.encode(en.Value) + "\n"
	}
	return lines
}
