package cli

import (
	"context"
	"fmt"

	"github.com/gookit/color"
	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/engine/avdict"
	"github.com/goliatone/go-ffoptions/pkg/engine/recorder"
)

func newApplyCmd(e *env) *Command {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	var pf presetFlags
	pf.register(fs)
	target := fs.StringP("target", "t", "recorder", "engine to apply to: recorder or avdict")

	return &Command{
		Flags: fs,
		Usage: "apply <preset> [flags]",
		Short: "Apply a preset to an engine and report each write",
		Long: "Apply a preset to the recorder engine (dry run) or to libavutil\n" +
			"dictionaries (avdict) and report what the engine received.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "preset path"); err != nil {
				return err
			}
			_, store, err := pf.build(e, args[0])
			if err != nil {
				return err
			}

			switch *target {
			case "recorder":
				return applyRecorder(o, store)
			case "avdict":
				return applyAVDict(o, store)
			default:
				return fmt.Errorf("unknown target %q", *target)
			}
		},
	}
}

func applyRecorder(o *IO, store *ffopts.Store) error {
	rec := recorder.New()
	err := store.Apply(rec)
	for _, call := range rec.Calls() {
		o.Printf("  set %-8s %-32s %s\n",
			o.Paint(color.Cyan, call.Category.String()),
			call.Key,
			o.Paint(color.Green, call.Value.String()),
		)
	}
	if err != nil {
		return err
	}
	o.Printf("applied %d options to %s\n", store.Len(), rec.Name())
	return nil
}

func applyAVDict(o *IO, store *ffopts.Store) error {
	dict, err := avdict.Open()
	if err != nil {
		return err
	}
	defer dict.Close()

	if err := store.Apply(dict); err != nil {
		return err
	}
	for _, category := range ffopts.Categories() {
		if n := dict.Count(category); n > 0 {
			o.Printf("  %-8s %d entries\n", o.Paint(color.Cyan, category.String()), n)
		}
	}
	o.Printf("applied %d options to %s\n", store.Len(), dict.Name())
	return nil
}
