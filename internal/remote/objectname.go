package remote

import (
	"fmt"
	"sort"
	"strings"
)

// ObjectName identifies a managed object as domain:key=value[,key=value...].
// Values returned by ParseObjectName are in canonical form with keys sorted.
type ObjectName string

// ParseObjectName validates s and returns its canonical form.
func ParseObjectName(s string) (ObjectName, error) {
	domain, props, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("object name %q: missing domain separator", s)
	}
	if props == "" {
		return "", fmt.Errorf("object name %q: no key properties", s)
	}

	pairs := splitProperties(props)
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if p == "*" {
			continue
		}
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" || value == "" {
			return "", fmt.Errorf("object name %q: invalid key property %q", s, p)
		}
		if seen[key] {
			return "", fmt.Errorf("object name %q: duplicate key %q", s, key)
		}
		seen[key] = true
	}

	sort.Slice(pairs, func(i, j int) bool {
		ki, _, _ := strings.Cut(pairs[i], "=")
		kj, _, _ := strings.Cut(pairs[j], "=")
		return ki < kj
	})
	return ObjectName(domain + ":" + strings.Join(pairs, ",")), nil
}

// Domain returns the part before the first colon.
func (n ObjectName) Domain() string {
	domain, _, _ := strings.Cut(string(n), ":")
	return domain
}

// Properties returns the key property list as written.
func (n ObjectName) Properties() string {
	_, props, _ := strings.Cut(string(n), ":")
	return props
}

func (n ObjectName) String() string {
	return string(n)
}

// splitProperties splits on commas outside quoted values.
func splitProperties(props string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(props); i++ {
		switch props[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, props[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, props[start:])
}
