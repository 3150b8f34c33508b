package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	flag "github.com/spf13/pflag"
)

// Command is one ffopts subcommand.
type Command struct {
	Flags *flag.FlagSet
	// Usage is shown after "ffopts" in help, e.g. "show <preset> [flags]".
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the line listed in the global usage.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints "ffopts <cmd> --help" output.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: ffopts", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}
	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(io.Discard)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)
		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	return 0
}

// IO wraps command output. Colors are only emitted when enabled.
type IO struct {
	out    io.Writer
	errOut io.Writer
	color  bool
}

func NewIO(out, errOut io.Writer, colored bool) *IO {
	return &IO{out: out, errOut: errOut, color: colored}
}

func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Paint renders s in c when colors are enabled.
func (o *IO) Paint(c color.Color, s string) string {
	if !o.color {
		return s
	}
	return c.Sprint(s)
}

// Out exposes stdout for encoders.
func (o *IO) Out() io.Writer {
	return o.out
}
