package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/goliatone/go-ffoptions/internal/server"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

func newServeCmd(e *env) *Command {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (default server.addr from config)")

	return &Command{
		Flags: fs,
		Usage: "serve [flags]",
		Short: "Serve resolved option sets over HTTP",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
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
			backend, closer, err := cfg.OpenStore()
			if err != nil {
				return err
			}
			defer closer.Close()

			listen := *addr
			if listen == "" {
				listen = cfg.Server.Addr
			}
			srv := server.New(state.Resolver{Store: backend, Options: opts}, server.WithLogger(e.logger))
			return srv.Run(ctx, listen)
		},
	}
}
