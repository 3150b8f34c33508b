package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/goliatone/go-ffoptions/pkg/engine/ffargs"
)

func newArgsCmd(e *env) *Command {
	fs := flag.NewFlagSet("args", flag.ContinueOnError)
	var pf presetFlags
	pf.register(fs)
	input := fs.StringP("input", "i", "", "append -i <input> after the options")
	playerPrefix := fs.String("player-prefix", "", "render player options as -<prefix><key> (ffplay uses an empty prefix)")
	asJSON := fs.Bool("json", false, "print the arguments as a JSON array")

	return &Command{
		Flags: fs,
		Usage: "args <preset> [flags]",
		Short: "Render a preset as ffmpeg command line arguments",
		Long: "Render a preset as ffmpeg/ffplay arguments. Player options are rejected\n" +
			"unless --player-prefix is given.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "preset path"); err != nil {
				return err
			}
			_, store, err := pf.build(e, args[0])
			if err != nil {
				return err
			}

			var opts []ffargs.Option
			if fs.Changed("player-prefix") {
				opts = append(opts, ffargs.WithPlayerPrefix(*playerPrefix))
			}
			builder := ffargs.New(opts...)
			if err := store.Apply(builder); err != nil {
				return err
			}

			rendered := builder.Args()
			if *input != "" {
				rendered = builder.InputArgs(*input)
			}
			if *asJSON {
				return writeJSON(o, rendered)
			}
			o.Println(ffargs.Join(rendered))
			return nil
		},
	}
}
