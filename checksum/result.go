package checksum

import (
	"os"
	"sort"
	"time"

	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
)

// Result maps an algorithm name to its lowercase hex digest. Computers and
// caches key it by canonical name.
type Result map[string]string

func (r Result) Algorithms() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Result) Copy() Result {
	copied := make(Result, len(r))
	for name, digest := range r {
		copied[name] = digest
	}
	return copied
}

// ForNames returns a copy keyed by names as the caller spelled them, so a
// request for "sha256" is answered under "sha256".
func (r Result) ForNames(names []string) Result {
	renamed := make(Result, len(names))
	for _, name := range names {
		if digest, found := r[boshcrypto.CanonicalName(name)]; found {
			renamed[name] = digest
		}
	}
	return renamed
}

// FileStamp identifies the version of a file a Result was computed from.
type FileStamp struct {
	Size    int64
	ModTime time.Time
}

func NewFileStamp(info os.FileInfo) FileStamp {
	return FileStamp{Size: info.Size(), ModTime: info.ModTime()}
}

func (s FileStamp) Matches(other FileStamp) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}
