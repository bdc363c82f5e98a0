package system

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	fsWrapper "github.com/charlievieth/fs"

	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const osFileSystemLogTag = "File System"

type osFileSystem struct {
	logger boshlog.Logger
}

// NewOsFileSystem goes through charlievieth/fs so that paths past MAX_PATH
// keep working on Windows.
func NewOsFileSystem(logger boshlog.Logger) FileSystem {
	return &osFileSystem{logger: logger}
}

func (fs *osFileSystem) ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", bosherr.WrapError(err, "Getting current user home dir")
		}
		path = filepath.Join(home, path[1:])
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", bosherr.WrapErrorf(err, "Expanding path '%s'", path)
	}

	return filepath.Clean(path), nil
}

func (fs *osFileSystem) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	fs.logger.Debug(osFileSystemLogTag, "Opening file '%s'", path)

	file, err := fsWrapper.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (fs *osFileSystem) Stat(path string) (os.FileInfo, error) {
	return fsWrapper.Stat(path)
}

func (fs *osFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	fs.logger.Debug(osFileSystemLogTag, "Reading directory '%s'", path)

	dir, err := fsWrapper.Open(path)
	if err != nil {
		return nil, bosherr.WrapErrorf(err, "Opening directory '%s'", path)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, bosherr.WrapErrorf(err, "Reading directory '%s'", path)
	}

	return entries, nil
}

func (fs *osFileSystem) ReadFile(path string) ([]byte, error) {
	fs.logger.Debug(osFileSystemLogTag, "Reading file %s", path)

	file, err := fsWrapper.Open(path)
	if err != nil {
		return nil, bosherr.WrapError(err, "Opening file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, bosherr.WrapError(err, "Reading file content")
	}

	return content, nil
}

func (fs *osFileSystem) ReadFileString(path string) (string, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(content), nil
}
