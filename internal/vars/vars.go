// Package vars expands ${key|default} placeholders against an environment.
package vars

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var placeholderRe = regexp.MustCompile(`\$\{\S+?\}`)

// Env resolves placeholder keys.
type Env interface {
	Lookup(key string) (string, bool)
}

// Map is an Env backed by a map, falling back to the process environment.
type Map map[string]string

// Lookup returns the mapped value, then the process environment value.
func (m Map) Lookup(key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// Process returns an Env reading only the process environment.
func Process() Env {
	return Map(nil)
}

// LoadFiles reads dotenv files into a Map. Later files override earlier ones.
func LoadFiles(paths ...string) (Map, error) {
	m := Map{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range values {
			m[k] = v
		}
	}
	return m, nil
}

// Replace expands every placeholder in value.
//
// A placeholder without a default is always replaced by the resolved value.
// With keep set, a placeholder carrying a default is re-emitted with the
// default refreshed to the resolved value, so a later pass can resolve it again.
func Replace(env Env, value string, keep bool) string {
	if env == nil {
		env = Process()
	}
	var sb strings.Builder
	start := 0
	for _, loc := range placeholderRe.FindAllStringIndex(value, -1) {
		sb.WriteString(value[start:loc[0]])
		token := value[loc[0]+2 : loc[1]-1]
		key, def, hasDefault := strings.Cut(token, "|")
		if hasDefault {
			// only the first alternative is a default
			def, _, _ = strings.Cut(def, "|")
		}

		resolved, ok := env.Lookup(key)
		if !ok {
			resolved = def
		}

		if !hasDefault || !keep {
			sb.WriteString(resolved)
		} else {
			if resolved == "" {
				resolved = def
			}
			sb.WriteString("${" + key + "|" + resolved + "}")
		}
		start = loc[1]
	}
	sb.WriteString(value[start:])
	return sb.String()
}
