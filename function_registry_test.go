package ffopts

import "testing"

func TestVersionAtLeast(t *testing.T) {
	cases := []struct {
		have, want string
		ok         bool
	}{
		{"15.4", "15.4", true},
		{"15.4.1", "15.4", true},
		{"v15.4", "15.4", true},
		{"15.10", "15.9", true},
		{"15.3.9", "15.4", false},
		{"15.4.0-beta", "15.4", false},
		{"16", "15.4.2", true},
	}
	for _, tc := range cases {
		got, err := versionAtLeast(tc.have, tc.want)
		if err != nil {
			t.Fatalf("version_at_least(%q, %q): %v", tc.have, tc.want, err)
		}
		if got != tc.ok {
			t.Fatalf("version_at_least(%q, %q) = %v, want %v", tc.have, tc.want, got, tc.ok)
		}
	}
}

func TestVersionAtLeastRejectsBadInput(t *testing.T) {
	if _, err := versionAtLeast("15.4"); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := versionAtLeast("", "1.0"); err == nil {
		t.Fatalf("expected error for empty version")
	}
	if _, err := versionAtLeast("ios-15", "1.0"); err == nil {
		t.Fatalf("expected error for malformed version")
	}
}

func TestPlaybackRegistryCallsVersionAtLeast(t *testing.T) {
	got, err := NewPlaybackFunctionRegistry().Call("VERSION_AT_LEAST", "17.0", "15.4")
	if err != nil || got != true {
		t.Fatalf("version_at_least(17.0, 15.4) = %v, %v", got, err)
	}
}
