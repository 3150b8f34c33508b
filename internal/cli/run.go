// Package cli implements the ffopts command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/internal/config"
	"github.com/goliatone/go-ffoptions/pkg/logging"
)

// Run is the entry point. args includes the program name. Returns the exit
// code.
func Run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("ffopts", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	configPath := global.StringP("config", "c", "", "path to ffopts.yaml")
	noColor := global.Bool("no-color", false, "disable colored output")

	o := NewIO(stdout, stderr, false)
	if len(args) > 0 {
		args = args[1:]
	}
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(o, nil)
			return 0
		}
		o.ErrPrintln("error:", err)
		return 1
	}
	o.color = !*noColor && stdout == os.Stdout

	e := &env{configPath: *configPath, stderr: stderr}
	commands := []*Command{
		newShowCmd(e),
		newArgsCmd(e),
		newApplyCmd(e),
		newSchemaCmd(e),
		newSaveCmd(e),
		newResolveCmd(e),
		newServeCmd(e),
	}

	rest := global.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(o, commands)
		return 0
	}

	for _, cmd := range commands {
		if cmd.Name() == rest[0] {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmd.Run(ctx, o, rest[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", rest[0])
	return 1
}

func printUsage(o *IO, commands []*Command) {
	o.Println("Usage: ffopts [--config path] [--no-color] <command> [flags]")
	o.Println()
	o.Println("Commands:")
	for _, cmd := range commands {
		o.Println(cmd.HelpLine())
	}
}

// env carries state shared by every command. Configuration is loaded on
// first use.
type env struct {
	configPath string
	stderr     io.Writer

	cfg    *config.Config
	logger zerolog.Logger
}

func (e *env) config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, err
	}
	e.cfg = cfg
	e.logger = logging.New(cfg.Log, e.stderr)
	return cfg, nil
}

// storeOptions returns the logging and evaluator options every store built
// by the CLI uses. engine overrides rules.engine when set.
func (e *env) storeOptions(engine string) ([]ffopts.StoreOption, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if engine != "" {
		copied := *cfg
		copied.Rules.Engine = engine
		cfg = &copied
	}
	evaluator, err := cfg.Evaluator()
	if err != nil {
		return nil, err
	}
	return append(logging.StoreOptions(e.logger), ffopts.WithEvaluator(evaluator)), nil
}

// presetFlags are shared by commands that build a store from a preset file.
type presetFlags struct {
	args   []string
	meta   []string
	engine string
}

func (p *presetFlags) register(fs *flag.FlagSet) {
	fs.StringArrayVar(&p.args, "arg", nil, "rule argument key=value (repeatable)")
	fs.StringArrayVar(&p.meta, "meta", nil, "rule metadata key=value (repeatable)")
	fs.StringVar(&p.engine, "engine", "", "rule engine: expr, cel or js (default from config)")
}

func (p *presetFlags) build(e *env, path string, extra ...ffopts.StoreOption) (*ffopts.Preset, *ffopts.Store, error) {
	preset, err := ffopts.LoadPresetFile(path)
	if err != nil {
		return nil, nil, err
	}
	args, err := parsePairs(p.args)
	if err != nil {
		return nil, nil, err
	}
	meta, err := parsePairs(p.meta)
	if err != nil {
		return nil, nil, err
	}
	opts, err := p.options(e)
	if err != nil {
		return nil, nil, err
	}
	store, err := preset.Build(ffopts.RuleContext{Args: args, Metadata: meta}, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return preset, store, nil
}

func (p *presetFlags) options(e *env) ([]ffopts.StoreOption, error) {
	return e.storeOptions(p.engine)
}

// parsePairs turns key=value pairs into rule arguments. Integers and booleans
// are converted; everything else stays a string.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[key] = coerce(raw)
	}
	return out, nil
}

func coerce(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func requireArgs(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("%s is required", what)
	}
	if len(args) > n {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(args[n:], " "))
	}
	return nil
}
