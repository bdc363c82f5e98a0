package crypto

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"

	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	ErrNoAlgorithms         = errors.New("no hash algorithms requested")
)

var (
	DigestAlgorithmMD5    Algorithm = algorithmImpl{name: "MD5", newHash: md5.New}
	DigestAlgorithmSHA1   Algorithm = algorithmImpl{name: "SHA1", newHash: sha1.New}
	DigestAlgorithmSHA256 Algorithm = algorithmImpl{name: "SHA256", newHash: sha256.New}
	DigestAlgorithmSHA512 Algorithm = algorithmImpl{name: "SHA512", newHash: sha512.New}
)

var supportedAlgorithms = map[string]Algorithm{
	DigestAlgorithmMD5.Name():    DigestAlgorithmMD5,
	DigestAlgorithmSHA1.Name():   DigestAlgorithmSHA1,
	DigestAlgorithmSHA256.Name(): DigestAlgorithmSHA256,
	DigestAlgorithmSHA512.Name(): DigestAlgorithmSHA512,
}

type UnsupportedAlgorithmError struct {
	Name string
}

func (e UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("Unsupported hash algorithm: %s", e.Name)
}

func (e UnsupportedAlgorithmError) Is(target error) bool {
	return target == ErrUnsupportedAlgorithm
}

// Resolve matches name case-insensitively against MD5, SHA1, SHA256 and
// SHA512.
func Resolve(name string) (Algorithm, error) {
	algorithm, found := supportedAlgorithms[CanonicalName(name)]
	if !found {
		return nil, UnsupportedAlgorithmError{Name: name}
	}

	return algorithm, nil
}

// ResolveAll resolves every name before returning, so callers can reject a
// request before doing any I/O. Repeated names collapse to one algorithm.
func ResolveAll(names []string) ([]Algorithm, error) {
	if len(names) == 0 {
		return nil, bosherr.WrapError(ErrNoAlgorithms, "Resolving digest algorithms")
	}

	algorithms := make([]Algorithm, 0, len(names))
	seen := map[string]struct{}{}

	for _, name := range names {
		algorithm, err := Resolve(name)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[algorithm.Name()]; dup {
			continue
		}
		seen[algorithm.Name()] = struct{}{}

		algorithms = append(algorithms, algorithm)
	}

	return algorithms, nil
}

func CanonicalName(name string) string {
	return strings.ToUpper(name)
}

func SupportedAlgorithms() []string {
	names := make([]string, 0, len(supportedAlgorithms))
	for name := range supportedAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type algorithmImpl struct {
	name    string
	newHash func() hash.Hash
}

func (a algorithmImpl) Name() string { return a.name }

func (a algorithmImpl) CreateHash() hash.Hash { return a.newHash() }

func (a algorithmImpl) CreateDigest(reader io.Reader) (Digest, error) {
	h := a.CreateHash()

	_, err := io.Copy(h, reader)
	if err != nil {
		return nil, bosherr.WrapError(err, "Copying file for digest calculation")
	}

	return NewDigest(a, hex.EncodeToString(h.Sum(nil))), nil
}
