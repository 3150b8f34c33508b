package ffopts

import "errors"

// fakeEngine records writes in order and can reject chosen paths.
type fakeEngine struct {
	calls    []Option
	reject   map[string]error
	notReady error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) SetString(category Category, key, value string) error {
	return f.record(category, key, StringValue(value))
}

func (f *fakeEngine) SetInt(category Category, key string, value int64) error {
	return f.record(category, key, IntValue(value))
}

func (f *fakeEngine) Ready() error {
	return f.notReady
}

func (f *fakeEngine) record(category Category, key string, value Value) error {
	if err := f.reject[optionPath(category, key)]; err != nil {
		return err
	}
	f.calls = append(f.calls, Option{Category: category, Key: key, Value: value})
	return nil
}

var errRejected = errors.New("engine rejected option")
