// Package creds derives the stable per-service tokens the storage gateway
// uses to authenticate its peers. Resolution never fails a boot: a service
// that ends up without a token simply runs unauthenticated against the
// gateway.
package creds

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sort"
	"strings"
)

const (
	overrideSuffix = "_API_TOKEN"
	maxPrefixLen   = 8
	entropyBytes   = 16
)

// Provisioner resolves one token per service, stable for the lifetime of the
// process. Tokens are never rotated mid-run.
type Provisioner struct {
	cache    map[string]string
	generate func(name string) (string, error)
}

func NewProvisioner() *Provisioner {
	return &Provisioner{
		cache:    make(map[string]string),
		generate: generateToken,
	}
}

// BuildRegistry resolves a token for each name: an explicit environment
// override wins, then the process-lifetime cache, then a freshly generated
// random token (cached immediately). Empty names are skipped silently, and
// generation failure drops the entry rather than failing the call.
func (p *Provisioner) BuildRegistry(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		if v := strings.TrimSpace(os.Getenv(OverrideKey(name))); v != "" {
			p.cache[name] = v
			out[name] = v
			continue
		}

		if v, ok := p.cache[name]; ok {
			out[name] = v
			continue
		}

		token, err := p.generate(name)
		if err != nil {
			continue
		}
		p.cache[name] = token
		out[name] = token
	}
	return out
}

// OverrideKey derives the environment variable consulted for an explicit
// token override: uppercase, hyphens to underscores, _API_TOKEN suffix.
func OverrideKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + overrideSuffix
}

// generateToken produces "<prefix>-<hex entropy>" where prefix is the service
// name stripped of non-alphanumerics and capped in length.
func generateToken(name string) (string, error) {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	entropy := hex.EncodeToString(buf)

	prefix := sanitizePrefix(name)
	if prefix == "" {
		return entropy, nil
	}
	return prefix + "-" + entropy, nil
}

func sanitizePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= maxPrefixLen {
				break
			}
		}
	}
	return b.String()
}

// StringifyTokenMap serializes tokens as "name:token,name:token" sorted by
// name with no trailing separator, the exact format ParseTokenMap reads
// back. Entries with an empty name or token are excluded.
func StringifyTokenMap(tokens map[string]string) string {
	names := make([]string, 0, len(tokens))
	for name, token := range tokens {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(token) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+":"+tokens[name])
	}
	return strings.Join(parts, ",")
}

// ParseTokenMap is the inverse of StringifyTokenMap. Malformed pairs are
// dropped rather than reported; the consumer treats a missing token as "auth
// disabled for this peer".
func ParseTokenMap(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, token, ok := strings.Cut(pair, ":")
		if !ok || name == "" || token == "" {
			continue
		}
		out[name] = token
	}
	return out
}
