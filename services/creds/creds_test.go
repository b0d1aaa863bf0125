package creds

import (
	"reflect"
	"regexp"
	"testing"
)

func TestBuildRegistry_CacheStability(t *testing.T) {
	p := NewProvisioner()
	names := []string{"cache", "gateway", "web"}

	first := p.BuildRegistry(names)
	second := p.BuildRegistry(names)

	if len(first) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("tokens changed between calls: %v vs %v", first, second)
	}
}

func TestBuildRegistry_EnvOverrideWins(t *testing.T) {
	t.Setenv("GATEWAY_API_TOKEN", "fixed-token-123")

	p := NewProvisioner()
	tokens := p.BuildRegistry([]string{"gateway"})

	if got := tokens["gateway"]; got != "fixed-token-123" {
		t.Errorf("expected override token, got %q", got)
	}

	// The override lands in the cache too, so a repeated call stays stable.
	again := p.BuildRegistry([]string{"gateway"})
	if again["gateway"] != "fixed-token-123" {
		t.Errorf("override not cached: got %q", again["gateway"])
	}
}

func TestBuildRegistry_SkipsEmptyNames(t *testing.T) {
	p := NewProvisioner()
	tokens := p.BuildRegistry([]string{"", "  ", "web"})

	if len(tokens) != 1 {
		t.Fatalf("expected only web, got %v", tokens)
	}
	if _, ok := tokens["web"]; !ok {
		t.Error("web missing from registry")
	}
}

func TestBuildRegistry_GenerationFailureIsNotFatal(t *testing.T) {
	p := NewProvisioner()
	p.generate = func(string) (string, error) {
		return "", errFake
	}

	tokens := p.BuildRegistry([]string{"web"})
	if len(tokens) != 0 {
		t.Errorf("expected no entries on generation failure, got %v", tokens)
	}
}

var errFake = &fakeErr{}

type fakeErr struct{}

func (*fakeErr) Error() string { return "fake" }

func TestGenerateToken_Shape(t *testing.T) {
	token, err := generateToken("setup-gateway")
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	// Prefix: non-alphanumerics stripped, capped at 8; entropy: 16 bytes hex.
	if !regexp.MustCompile(`^setupgat-[0-9a-f]{32}$`).MatchString(token) {
		t.Errorf("unexpected token shape %q", token)
	}
}

func TestOverrideKey(t *testing.T) {
	cases := map[string]string{
		"gateway":       "GATEWAY_API_TOKEN",
		"setup-gateway": "SETUP_GATEWAY_API_TOKEN",
		"web":           "WEB_API_TOKEN",
	}
	for name, want := range cases {
		if got := OverrideKey(name); got != want {
			t.Errorf("OverrideKey(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestStringifyTokenMap_Deterministic(t *testing.T) {
	tokens := map[string]string{
		"web":     "web-aaa",
		"cache":   "cache-bbb",
		"gateway": "gateway-ccc",
	}

	got := StringifyTokenMap(tokens)
	want := "cache:cache-bbb,gateway:gateway-ccc,web:web-aaa"
	if got != want {
		t.Errorf("StringifyTokenMap = %q, want %q", got, want)
	}
}

func TestStringifyTokenMap_ExcludesEmptyEntries(t *testing.T) {
	tokens := map[string]string{
		"web":   "web-aaa",
		"empty": "",
		"":      "orphan",
	}
	if got := StringifyTokenMap(tokens); got != "web:web-aaa" {
		t.Errorf("StringifyTokenMap = %q", got)
	}
}

func TestTokenMap_RoundTrip(t *testing.T) {
	tokens := map[string]string{
		"cache":         "cache-0af31b",
		"setup-gateway": "setupgat-99ff00aa99ff00aa99ff00aa99ff00aa",
		"web":           "web-123",
	}

	parsed := ParseTokenMap(StringifyTokenMap(tokens))
	if !reflect.DeepEqual(parsed, tokens) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", parsed, tokens)
	}
}

func TestParseTokenMap_DropsMalformedPairs(t *testing.T) {
	parsed := ParseTokenMap("a:1,broken,:2,b:,c:3")
	want := map[string]string{"a": "1", "c": "3"}
	if !reflect.DeepEqual(parsed, want) {
		t.Errorf("ParseTokenMap = %v, want %v", parsed, want)
	}
}
