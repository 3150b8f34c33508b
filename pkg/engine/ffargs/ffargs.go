// Package ffargs is an engine that renders options as ffmpeg/ffplay command
// line arguments ("-key value").
package ffargs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	ffopts "github.com/goliatone/go-ffoptions"
)

// ErrUnsupportedCategory is returned for player options unless a player
// prefix was configured.
var ErrUnsupportedCategory = errors.New("ffargs: category has no command line form")

// Option configures a Builder.
type Option func(*Builder)

// WithPlayerPrefix renders player options as "-<prefix><key> value". ffplay
// flags such as -framedrop map with an empty prefix.
func WithPlayerPrefix(prefix string) Option {
	return func(b *Builder) {
		b.playerPrefix = prefix
		b.playerEnabled = true
	}
}

type arg struct {
	category ffopts.Category
	flag     string
	value    string
}

// Builder collects arguments. It implements ffopts.Engine and is safe for
// concurrent use. Writing the same flag twice replaces the value in place.
type Builder struct {
	mu            sync.Mutex
	args          []arg
	index         map[string]int
	playerPrefix  string
	playerEnabled bool
}

// New returns an empty Builder.
func New(opts ...Option) *Builder {
	b := &Builder{index: map[string]int{}}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Builder) Name() string {
	return "ffargs"
}

func (b *Builder) SetString(category ffopts.Category, key, value string) error {
	return b.add(category, key, value)
}

func (b *Builder) SetInt(category ffopts.Category, key string, value int64) error {
	return b.add(category, key, strconv.FormatInt(value, 10))
}

func (b *Builder) add(category ffopts.Category, key, value string) error {
	flag, err := b.flag(category, key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos, ok := b.index[flag]; ok {
		b.args[pos].value = value
		return nil
	}
	b.index[flag] = len(b.args)
	b.args = append(b.args, arg{category: category, flag: flag, value: value})
	return nil
}

func (b *Builder) flag(category ffopts.Category, key string) (string, error) {
	if strings.ContainsAny(key, " \t\n") || strings.HasPrefix(key, "-") {
		return "", fmt.Errorf("ffargs: invalid option name %q", key)
	}
	switch category {
	case ffopts.CategoryFormat, ffopts.CategoryCodec, ffopts.CategorySws, ffopts.CategorySwr:
		return "-" + key, nil
	case ffopts.CategoryPlayer:
		if !b.playerEnabled {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedCategory, category)
		}
		return "-" + b.playerPrefix + key, nil
	default:
		return "", fmt.Errorf("%w: %d", ffopts.ErrInvalidCategory, int(category))
	}
}

// Args returns the arguments in write order.
func (b *Builder) Args() []string {
	return b.filter(func(ffopts.Category) bool { return true })
}

// Category returns the arguments written for category.
func (b *Builder) Category(category ffopts.Category) []string {
	return b.filter(func(c ffopts.Category) bool { return c == category })
}

// InputArgs returns the arguments followed by "-i input", the form ffmpeg
// expects for input options.
func (b *Builder) InputArgs(input string) []string {
	return append(b.Args(), "-i", input)
}

// String renders the arguments quoted for a POSIX shell.
func (b *Builder) String() string {
	return Join(b.Args())
}

// Join quotes each argument for a POSIX shell and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func (b *Builder) filter(keep func(ffopts.Category) bool) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.args)*2)
	for _, a := range b.args {
		if keep(a.category) {
			out = append(out, a.flag, a.value)
		}
	}
	return out
}

// Render applies store to a fresh Builder and returns its arguments.
func Render(store *ffopts.Store, opts ...Option) ([]string, error) {
	b := New(opts...)
	if err := store.Apply(b); err != nil {
		return nil, err
	}
	return b.Args(), nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
