package cli

import (
	"context"
	"encoding/json"

	"github.com/gookit/color"
	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
)

func newShowCmd(e *env) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var pf presetFlags
	pf.register(fs)
	asJSON := fs.Bool("json", false, "print the options as a JSON array")

	return &Command{
		Flags: fs,
		Usage: "show <preset> [flags]",
		Short: "Print the options a preset stages",
		Long: "Load a preset file, evaluate its rules against --arg/--meta and print the\n" +
			"resulting options in apply order.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "preset path"); err != nil {
				return err
			}
			preset, store, err := pf.build(e, args[0])
			if err != nil {
				return err
			}
			if *asJSON {
				return writeJSON(o, store)
			}
			o.Printf("%s %s (%d options)\n", o.Paint(color.Bold, "preset"), preset.Name, store.Len())
			printStore(o, store)
			return nil
		},
	}
}

func printStore(o *IO, store *ffopts.Store) {
	store.Each(func(opt ffopts.Option) bool {
		o.Printf("  %-8s %-32s %s\n",
			o.Paint(color.Cyan, opt.Category.String()),
			opt.Key,
			o.Paint(color.Green, opt.Value.String()),
		)
		return true
	})
}

func writeJSON(o *IO, v any) error {
	enc := json.NewEncoder(o.Out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
