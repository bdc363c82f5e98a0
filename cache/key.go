package cache

import (
	"sort"
	"strings"

	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
)

// Key identifies a cached result by absolute file path and algorithm set.
// Algorithm order, case and repeats do not change the key.
type Key struct {
	path       string
	algorithms string
}

func NewKey(absPath string, algorithms []string) Key {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(algorithms))

	for _, algorithm := range algorithms {
		name := boshcrypto.CanonicalName(algorithm)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	return Key{path: absPath, algorithms: strings.Join(names, ",")}
}

func (k Key) Path() string { return k.path }

func (k Key) Algorithms() []string {
	if k.algorithms == "" {
		return nil
	}
	return strings.Split(k.algorithms, ",")
}

func (k Key) String() string {
	return k.path + "|" + k.algorithms
}
