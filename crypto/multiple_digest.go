package crypto

import (
	"fmt"
	"sort"
)

type multipleDigestImpl struct {
	digests []Digest
}

func Verify(m MultipleDigest, digest Digest) error {
	candidateDigest, found := m.DigestFor(digest.Algorithm())
	if !found {
		return fmt.Errorf("No digest found that matches %s", digest.Algorithm().Name())
	}

	return candidateDigest.Verify(digest)
}

func NewMultipleDigest(digests ...Digest) MultipleDigest {
	return multipleDigestImpl{digests: digests}
}

// NewMultipleDigestFromMap converts an algorithm -> hex map into digests,
// ordered by algorithm name.
func NewMultipleDigestFromMap(results map[string]string) (MultipleDigest, error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	digests := make([]Digest, 0, len(names))
	for _, name := range names {
		algorithm, err := Resolve(name)
		if err != nil {
			return nil, err
		}
		digests = append(digests, NewDigest(algorithm, results[name]))
	}

	return NewMultipleDigest(digests...), nil
}

func (m multipleDigestImpl) Digests() []Digest {
	return m.digests
}

func (m multipleDigestImpl) DigestFor(algorithm Algorithm) (Digest, bool) {
	for _, candidate := range m.digests {
		if candidate.Algorithm().Name() == algorithm.Name() {
			return candidate, true
		}
	}

	return nil, false
}
