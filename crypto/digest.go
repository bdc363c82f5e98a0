package crypto

import (
	"errors"
	"fmt"
	"strings"
)

type digestImpl struct {
	algorithm Algorithm
	digest    string
}

func NewDigest(algorithm Algorithm, digest string) Digest {
	return digestImpl{
		algorithm: algorithm,
		digest:    strings.ToLower(digest),
	}
}

func (c digestImpl) Algorithm() Algorithm {
	return c.algorithm
}

func (c digestImpl) Digest() string {
	return c.digest
}

func (c digestImpl) String() string {
	return fmt.Sprintf("%s:%s", strings.ToLower(c.algorithm.Name()), c.digest)
}

func (c digestImpl) Verify(digest Digest) error {
	if c.algorithm.Name() != digest.Algorithm().Name() {
		return fmt.Errorf(`Expected %s algorithm but received %s`, c.algorithm.Name(), digest.Algorithm().Name())
	} else if c.digest != digest.Digest() {
		return fmt.Errorf(`Expected %s digest "%s" but received "%s"`, c.algorithm.Name(), c.digest, digest.Digest())
	}

	return nil
}

var algorithmsByHexLength = map[int]Algorithm{
	32:  DigestAlgorithmMD5,
	40:  DigestAlgorithmSHA1,
	64:  DigestAlgorithmSHA256,
	128: DigestAlgorithmSHA512,
}

// ParseDigestString accepts "<algorithm>:<hex>" or bare hex, in which case
// the algorithm is picked from the hex length.
func ParseDigestString(digest string) (Digest, error) {
	pieces := strings.SplitN(strings.TrimSpace(digest), ":", 2)

	if len(pieces) == 1 {
		algorithm, found := algorithmsByHexLength[len(pieces[0])]
		if !found {
			return nil, fmt.Errorf("Parsing digest: cannot infer algorithm of '%s'", digest)
		}
		return NewDigest(algorithm, pieces[0]), nil
	}

	algorithm, err := Resolve(pieces[0])
	if err != nil {
		return nil, err
	}

	if pieces[1] == "" {
		return nil, errors.New("Parsing digest: empty digest value")
	}

	return NewDigest(algorithm, pieces[1]), nil
}
