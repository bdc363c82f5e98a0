package crypto_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/cloudfoundry/bosh-multidigest/crypto"
)

var _ = Describe("Algorithms", func() {
	Describe("Resolve", func() {
		DescribeTable("matches supported names case-insensitively",
			func(name string, expected Algorithm) {
				algorithm, err := Resolve(name)
				Expect(err).ToNot(HaveOccurred())
				Expect(algorithm.Name()).To(Equal(expected.Name()))
			},
			Entry("md5", "md5", DigestAlgorithmMD5),
			Entry("Sha1", "Sha1", DigestAlgorithmSHA1),
			Entry("SHA256", "SHA256", DigestAlgorithmSHA256),
			Entry("sha512", "sha512", DigestAlgorithmSHA512),
		)

		It("rejects unknown names", func() {
			_, err := Resolve("CRC32")
			Expect(err).To(MatchError("Unsupported hash algorithm: CRC32"))
			Expect(errors.Is(err, ErrUnsupportedAlgorithm)).To(BeTrue())

			var typedErr UnsupportedAlgorithmError
			Expect(errors.As(err, &typedErr)).To(BeTrue())
			Expect(typedErr.Name).To(Equal("CRC32"))
		})

		It("rejects names padded with whitespace", func() {
			_, err := Resolve(" sha512 ")
			Expect(err).To(MatchError(ErrUnsupportedAlgorithm))
		})

		It("rejects names that only resemble supported ones", func() {
			_, err := Resolve("sha-256")
			Expect(err).To(MatchError(ErrUnsupportedAlgorithm))
		})
	})

	Describe("ResolveAll", func() {
		It("keeps request order and drops repeats", func() {
			algorithms, err := ResolveAll([]string{"sha256", "MD5", "SHA256"})
			Expect(err).ToNot(HaveOccurred())
			Expect(algorithms).To(HaveLen(2))
			Expect(algorithms[0].Name()).To(Equal("SHA256"))
			Expect(algorithms[1].Name()).To(Equal("MD5"))
		})

		It("fails on the first unsupported name", func() {
			_, err := ResolveAll([]string{"SHA256", "CRC32"})
			Expect(err).To(MatchError(ErrUnsupportedAlgorithm))
		})

		It("rejects an empty request", func() {
			_, err := ResolveAll(nil)
			Expect(err).To(MatchError(ErrNoAlgorithms))
		})
	})

	Describe("SupportedAlgorithms", func() {
		It("lists canonical names sorted", func() {
			Expect(SupportedAlgorithms()).To(Equal([]string{"MD5", "SHA1", "SHA256", "SHA512"}))
		})
	})

	Describe("CreateHash", func() {
		It("returns a fresh stream every time", func() {
			first := DigestAlgorithmSHA256.CreateHash()
			second := DigestAlgorithmSHA256.CreateHash()

			first.Write([]byte("data"))
			Expect(hex.EncodeToString(second.Sum(nil))).To(Equal("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"))
		})

		It("gives the same digest for chunked and whole writes", func() {
			data := bytes.Repeat([]byte("0123456789"), 1000)

			whole := DigestAlgorithmSHA512.CreateHash()
			whole.Write(data)

			chunked := DigestAlgorithmSHA512.CreateHash()
			for i := 0; i < len(data); i += 333 {
				end := i + 333
				if end > len(data) {
					end = len(data)
				}
				chunked.Write(data[i:end])
			}

			Expect(chunked.Sum(nil)).To(Equal(whole.Sum(nil)))
		})
	})

	Describe("CreateDigest", func() {
		var reader io.Reader

		BeforeEach(func() {
			reader = bytes.NewReader([]byte("something different"))
		})

		DescribeTable("computes digest from a reader",
			func(algorithm Algorithm, expected string) {
				digest, err := algorithm.CreateDigest(reader)
				Expect(err).ToNot(HaveOccurred())
				Expect(digest.Digest()).To(Equal(expected))
			},
			Entry("md5", DigestAlgorithmMD5, "0c895270853c3023cf2741bdfdab14e2"),
			Entry("sha1", DigestAlgorithmSHA1, "da7102c07515effc353226eac2be923c916c5c94"),
			Entry("sha256", DigestAlgorithmSHA256, "73af606b33433fa3a699134b39d5f6bce1ab4a6d9ca3263d3300f31fc5776b12"),
			Entry("sha512", DigestAlgorithmSHA512, "25b38e5cf4069979d4de934ed6cde40eceec1f7100fc2a5fc38d3569456ab2b7e191bbf5a78b533df94a77fcd48b8cb025a4b5db20720d1ac36ecd9af0c8989a"),
		)

		It("wraps read errors", func() {
			_, err := DigestAlgorithmSHA1.CreateDigest(errReader{})
			Expect(err).To(MatchError("Copying file for digest calculation: fake-read-error"))
		})
	})
})

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("fake-read-error") }
