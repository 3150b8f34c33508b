package hydrate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type presetDoc struct {
	Name    string                                `json:"name"`
	Options map[string]map[string]json.RawMessage `json:"options"`
}

func TestDecodeBytesAcceptsComments(t *testing.T) {
	data := []byte(`{
		// low latency live profile
		"name": "live",
		"options": {
			"player": {"max-fps": 30,},
		},
	}`)

	got, err := NewDecoder[presetDoc]().DecodeBytes(Context{Source: "live.jsonc"}, data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Name != "live" {
		t.Fatalf("expected name live, got %q", got.Name)
	}
	if raw := string(got.Options["player"]["max-fps"]); raw != "30" {
		t.Fatalf("expected raw max-fps 30, got %q", raw)
	}
}

func TestDecodeBytesReportsSource(t *testing.T) {
	_, err := NewDecoder[presetDoc]().DecodeBytes(Context{Source: "broken.jsonc"}, []byte(`{"name": `))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), `"broken.jsonc"`) {
		t.Fatalf("expected source in error, got %v", err)
	}
}

func TestDecodeRunsHooksInOrder(t *testing.T) {
	var calls []string
	decoder := NewDecoder[presetDoc](
		WithPreHook[presetDoc](func(ctx Context, payload map[string]any) (map[string]any, error) {
			calls = append(calls, "pre:"+ctx.Scope)
			payload["name"] = strings.ToUpper(payload["name"].(string))
			return payload, nil
		}),
		WithPostHook[presetDoc](func(ctx Context, doc *presetDoc) error {
			calls = append(calls, "post:"+doc.Name)
			return nil
		}),
	)

	input := map[string]any{"name": "vod"}
	got, err := decoder.Decode(Context{Scope: "tenant"}, input)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.Name != "VOD" {
		t.Fatalf("expected pre-hook to rewrite name, got %q", got.Name)
	}
	if input["name"] != "vod" {
		t.Fatalf("pre-hook must not mutate the caller payload, got %v", input["name"])
	}
	if diff := cmp.Diff([]string{"pre:tenant", "post:VOD"}, calls); diff != "" {
		t.Fatalf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePostHookError(t *testing.T) {
	sentinel := errors.New("invalid preset")
	decoder := NewDecoder[presetDoc](
		WithPostHook[presetDoc](func(Context, *presetDoc) error { return sentinel }),
	)
	_, err := decoder.Decode(Context{Source: "x"}, map[string]any{"name": "x"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected post-hook error to be wrapped, got %v", err)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	decoder := NewDecoder[presetDoc](WithDisallowUnknownFields[presetDoc]())
	_, err := decoder.Decode(Context{}, map[string]any{"name": "x", "extra": true})
	if err == nil || !strings.Contains(err.Error(), "extra") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	if _, err := NewDecoder[presetDoc]().Decode(Context{}, nil); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}
