package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

func newSaveCmd(e *env) *Command {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	var pf presetFlags
	pf.register(fs)
	domain := fs.StringP("domain", "d", "", "options domain (default server.domain from config)")
	scopeRef := fs.StringP("scope", "s", "system", "scope as name:id, e.g. tenant:acme")
	ifMatch := fs.String("if-match", "", "only save when the stored etag matches")
	merge := fs.Bool("merge", false, "keep options already stored for the scope")

	return &Command{
		Flags: fs,
		Usage: "save <preset> [flags]",
		Short: "Store a preset's options as a scope snapshot",
		Long: "Build a preset and store the result as the snapshot of one scope in the\n" +
			"configured backend (memory, sqlite or redis). The stored options replace\n" +
			"the previous snapshot unless --merge is given.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := requireArgs(args, 1, "preset path"); err != nil {
				return err
			}
			cfg, err := e.config()
			if err != nil {
				return err
			}
			scope, err := state.ParseScopeRef(*scopeRef)
			if err != nil {
				return err
			}
			preset, store, err := pf.build(e, args[0])
			if err != nil {
				return err
			}

			backend, closer, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			ref := state.Ref{Domain: *domain, Scope: scope}
			if ref.Domain == "" {
				ref.Domain = cfg.Server.Domain
			}
			meta := state.Meta{ETag: *ifMatch, Extra: map[string]string{"preset": preset.Name}}

			resolver := state.Resolver{Store: backend}
			_, saved, err := resolver.Mutate(ctx, ref, meta, func(snapshot *ffopts.Store) error {
				if !*merge {
					for _, opt := range snapshot.Options() {
						snapshot.Delete(opt.Category, opt.Key)
					}
				}
				snapshot.Merge(store)
				return nil
			})
			if err != nil {
				return err
			}

			id, _ := ref.Identifier()
			o.Printf("saved %s (%d options) snapshot=%s etag=%s\n", id, store.Len(), saved.SnapshotID, saved.ETag)
			return nil
		},
	}
}
