package crypto

import (
	"hash"
	"io"
)

type Digest interface {
	Algorithm() Algorithm
	Digest() string
	String() string
	Verify(Digest) error
}

var _ Digest = digestImpl{}

// Algorithm is a named digest-stream factory. CreateHash returns a fresh
// stream on every call; streams accept any number of writes before Sum.
type Algorithm interface {
	Name() string
	CreateHash() hash.Hash
	CreateDigest(io.Reader) (Digest, error)
}

var _ Algorithm = algorithmImpl{}

type MultipleDigest interface {
	Digests() []Digest
	DigestFor(Algorithm) (Digest, bool)
}

var _ MultipleDigest = multipleDigestImpl{}
