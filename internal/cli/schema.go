package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/schema/openapi"
)

func newSchemaCmd(e *env) *Command {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	var pf presetFlags
	pf.register(fs)
	format := fs.StringP("format", "f", string(ffopts.SchemaFormatDescriptors), "descriptors or openapi")

	return &Command{
		Flags: fs,
		Usage: "schema <preset> [flags]",
		Short: "Print a schema describing a preset's options",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "preset path"); err != nil {
				return err
			}

			var extra []ffopts.StoreOption
			switch ffopts.SchemaFormat(*format) {
			case ffopts.SchemaFormatDescriptors:
			case ffopts.SchemaFormatOpenAPI:
				extra = append(extra, openapi.Option())
			default:
				return fmt.Errorf("unknown schema format %q", *format)
			}

			_, store, err := pf.build(e, args[0], extra...)
			if err != nil {
				return err
			}
			doc, err := store.Schema()
			if err != nil {
				return err
			}
			return writeJSON(o, doc.Document)
		},
	}
}
