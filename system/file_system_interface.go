package system

import (
	"io"
	"os"
)

type File interface {
	io.Reader
	io.Closer
	Name() string
	Stat() (os.FileInfo, error)
}

// FileSystem is the read side of the OS that hashing needs. Implementations
// must be safe for concurrent use.
type FileSystem interface {
	// ExpandPath returns an absolute, cleaned path.
	ExpandPath(path string) (string, error)

	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.DirEntry, error)

	ReadFile(path string) ([]byte, error)
	ReadFileString(path string) (string, error)
}
