// Package avdict is an engine that writes options into libavutil
// AVDictionary instances, one per option category, the way a player hands
// them to avformat_open_input, avcodec_open2, sws and swr contexts.
//
// libavutil is loaded at runtime with purego. Library locations checked (in
// order):
//   - FFOPTS_AVUTIL_PATH environment variable
//   - the versioned and unversioned system library names
package avdict

import (
	"errors"
	"fmt"
	"sync"

	ffopts "github.com/goliatone/go-ffoptions"
)

var (
	// ErrUnavailable is returned when libavutil cannot be loaded.
	ErrUnavailable = errors.New("avdict: libavutil unavailable")
	// ErrClosed is returned by a Dict after Close.
	ErrClosed = errors.New("avdict: dictionary closed")
)

// AVError carries a negative libavutil return code.
type AVError struct {
	Op   string
	Code int32
	Msg  string
}

func (e *AVError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("avdict: %s: %s (%d)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("avdict: %s: error %d", e.Op, e.Code)
}

// Dict keeps one AVDictionary per category. It implements ffopts.Engine and
// ffopts.ReadyChecker and is safe for concurrent use.
type Dict struct {
	mu     sync.Mutex
	dicts  [6]uintptr
	closed bool
}

// Open loads libavutil (once per process) and returns an empty Dict.
func Open() (*Dict, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return &Dict{}, nil
}

// Available reports whether libavutil could be loaded.
func Available() bool {
	return load() == nil
}

// Name identifies the engine in logs.
func (d *Dict) Name() string {
	return "avdict"
}

// Ready fails when libavutil cannot be loaded or once the dictionaries were
// freed.
func (d *Dict) Ready() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return load()
}

func (d *Dict) SetString(category ffopts.Category, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot, err := d.slot(category)
	if err != nil {
		return err
	}
	return dictSet(slot, key, value)
}

func (d *Dict) SetInt(category ffopts.Category, key string, value int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot, err := d.slot(category)
	if err != nil {
		return err
	}
	return dictSetInt(slot, key, value)
}

// Get returns the value stored for key in category. libavutil stores integers
// as their decimal text.
func (d *Dict) Get(category ffopts.Category, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !category.Valid() {
		return "", false
	}
	return dictGet(d.dicts[category], key)
}

// Count returns the number of entries in the category dictionary.
func (d *Dict) Count(category ffopts.Category) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !category.Valid() {
		return 0
	}
	return dictCount(d.dicts[category])
}

// Handle returns the raw AVDictionary pointer of category for callers that
// pass it on to other FFmpeg libraries. The pointer stays owned by d.
func (d *Dict) Handle(category ffopts.Category) uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !category.Valid() {
		return 0
	}
	return d.dicts[category]
}

// Close frees every dictionary. Further writes fail with ErrClosed.
func (d *Dict) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	for i := range d.dicts {
		dictFree(&d.dicts[i])
	}
	d.closed = true
	return nil
}

func (d *Dict) slot(category ffopts.Category) (*uintptr, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %d", ffopts.ErrInvalidCategory, int(category))
	}
	// A zero Dict skipped Open.
	if err := load(); err != nil {
		return nil, err
	}
	return &d.dicts[category], nil
}
