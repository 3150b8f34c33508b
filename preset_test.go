package ffopts

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const lowLatencyPreset = `{
	// tuned for live playback
	"name": "low-latency",
	"description": "drop frames early",
	"options": {
		"player": {"max-fps": 30, "framedrop": true, "overlay-format": "fcc-i420"},
		"format": {"reconnect": 1, "fflags": "nobuffer"},
		"codec": {"skip_loop_filter": 48},
	},
	"rules": [
		{"name": "cellular", "when": "args.network == \"cellular\"", "category": "format", "key": "timeout", "value": 60000000},
	],
}`

func presetPaths(store *Store) []string {
	var paths []string
	store.Each(func(opt Option) bool {
		paths = append(paths, opt.Path()+"="+opt.Value.String())
		return true
	})
	return paths
}

func TestParsePresetStagesByCategoryThenKey(t *testing.T) {
	preset, err := ParsePreset([]byte(lowLatencyPreset))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if preset.Name != "low-latency" || preset.Description != "drop frames early" {
		t.Fatalf("unexpected header: %q %q", preset.Name, preset.Description)
	}

	want := []string{
		"format.fflags=nobuffer",
		"format.reconnect=1",
		"codec.skip_loop_filter=48",
		"player.framedrop=1",
		"player.max-fps=30",
		"player.overlay-format=fcc-i420",
	}
	if diff := cmp.Diff(want, presetPaths(preset.Options)); diff != "" {
		t.Fatalf("staged mismatch (-want +got):\n%s", diff)
	}
	if len(preset.Rules) != 1 || preset.Rules[0].Category != CategoryFormat {
		t.Fatalf("unexpected rules: %+v", preset.Rules)
	}
}

func TestParsePresetRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field":    `{"name": "x", "extra": true}`,
		"unknown category": `{"name": "x", "options": {"video": {"a": 1}}}`,
		"float value":      `{"name": "x", "options": {"player": {"max-fps": 29.97}}}`,
		"nested value":     `{"name": "x", "options": {"player": {"max-fps": {"v": 1}}}}`,
		"broken rule":      `{"name": "x", "rules": [{"when": "args.", "category": "player", "key": "framedrop", "value": 1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePreset([]byte(body)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestPresetBuildAppliesRules(t *testing.T) {
	preset, err := ParsePreset([]byte(lowLatencyPreset))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	store, err := preset.Build(RuleContext{Args: map[string]any{"network": "cellular"}},
		WithScope(NewScope("stream", ScopePriorityStream)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v, ok := store.Get(CategoryFormat, "timeout"); !ok || v.Int != 60000000 {
		t.Fatalf("rule should stage timeout, got %+v ok=%v", v, ok)
	}
	if store.Scope().Name != "stream" {
		t.Fatalf("build options should configure the store")
	}
	if preset.Options.Has(CategoryFormat, "timeout") {
		t.Fatalf("build must not mutate the preset options")
	}

	wifi, err := preset.Build(RuleContext{Args: map[string]any{"network": "wifi"}})
	if err != nil {
		t.Fatalf("build wifi: %v", err)
	}
	if wifi.Has(CategoryFormat, "timeout") {
		t.Fatalf("wifi should not stage timeout")
	}
}

func TestSaveAndLoadPresetFile(t *testing.T) {
	preset, err := ParsePreset([]byte(lowLatencyPreset))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	path := filepath.Join(t.TempDir(), "low-latency.json")
	if err := SavePresetFile(path, preset); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadPresetFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(preset.Options.Options(), loaded.Options.Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(preset.Rules, loaded.Rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadPresetFile(filepath.Join(t.TempDir(), "missing.json")); err == nil || !strings.Contains(err.Error(), "read preset") {
		t.Fatalf("expected read error, got %v", err)
	}
}
