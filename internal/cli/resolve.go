package cli

import (
	"context"

	"github.com/gookit/color"
	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

func newResolveCmd(e *env) *Command {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	domain := fs.StringP("domain", "d", "", "options domain (default server.domain from config)")
	scopes := fs.StringArrayP("scope", "s", nil, "scope as name:id (repeatable)")
	trace := fs.String("trace", "", "print the provenance of one option, e.g. codec.skip_frame")
	noDefaults := fs.Bool("no-defaults", false, "do not add the built-in defaults as the weakest layer")
	asJSON := fs.Bool("json", false, "print the merged options as a JSON array")

	return &Command{
		Flags: fs,
		Usage: "resolve [flags]",
		Short: "Merge stored scope snapshots into one option set",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 0, ""); err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			opts, err := e.storeOptions("")
			if err != nil {
				return err
			}

			var refs []ffopts.Scope
			for _, raw := range *scopes {
				scope, err := state.ParseScopeRef(raw)
				if err != nil {
					return err
				}
				refs = append(refs, scope)
			}

			backend, closer, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			name := *domain
			if name == "" {
				name = cfg.Server.Domain
			}
			resolver := state.Resolver{Store: backend, Options: opts}

			var merged *ffopts.Store
			if *noDefaults {
				merged, err = resolver.Resolve(ctx, name, refs...)
			} else {
				merged, err = resolver.ResolveWithDefaults(ctx, name, nil, refs...)
			}
			if err != nil {
				return err
			}

			if *trace != "" {
				return printTrace(o, merged, *trace)
			}
			if *asJSON {
				return writeJSON(o, merged)
			}
			for _, scope := range merged.LayerScopes() {
				o.Printf("%s %s (priority %d)\n", o.Paint(color.Bold, "layer"), scope.Name, scope.Priority)
			}
			printStore(o, merged)
			return nil
		},
	}
}

func printTrace(o *IO, store *ffopts.Store, path string) error {
	category, key, err := ffopts.ParsePath(path)
	if err != nil {
		return err
	}
	value, trace, err := store.ResolveWithTrace(category, key)
	if err != nil {
		return err
	}
	o.Printf("%s = %s\n", trace.Path, o.Paint(color.Green, value.String()))
	winner, _ := trace.Winner()
	for _, layer := range trace.Layers {
		marker := " "
		if layer.Found && layer.Scope.Name == winner.Scope.Name {
			marker = "*"
		}
		if layer.Found {
			o.Printf(" %s %-10s %v\n", marker, layer.Scope.Name, layer.Value)
			continue
		}
		o.Printf(" %s %-10s -\n", marker, layer.Scope.Name)
	}
	return nil
}
