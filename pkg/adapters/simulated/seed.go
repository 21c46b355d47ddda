package simulated

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// seed hashes the request parts into a generator seed.
func seed(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		d.WriteString(p)
		d.WriteString("\x00")
	}
	return d.Sum64()
}

func source(parts ...string) *rand.Rand {
	s := seed(parts...)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// canonical renders a map in key order so it can be hashed.
func canonical(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, m[k])
	}
	return b.String()
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func unsupported(backend, operation string) error {
	return fmt.Errorf("%s backend does not support operation %q", backend, operation)
}

func checkContext(ctx context.Context) error {
	return ctx.Err()
}
