package fakes

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
)

type FakeFileType string

const (
	FakeFileTypeFile    FakeFileType = "file"
	FakeFileTypeDir     FakeFileType = "dir"
	FakeFileTypeSymlink FakeFileType = "symlink"
)

type FakeFileStats struct {
	FileType FakeFileType
	FileMode os.FileMode
	ModTime  time.Time
	Content  []byte
}

func (s FakeFileStats) StringContents() string {
	return string(s.Content)
}

type FakeFileSystem struct {
	mu    sync.Mutex
	files map[string]*FakeFileStats

	openFiles map[string]*FakeFile

	OpenFileErr       error
	OpenFileErrs      []error
	OpenFileCallCount int
	OpenFilePaths     []string

	StatErr       error
	StatCallCount int

	ReadDirErr error

	ExpandPathErr error
}

func NewFakeFileSystem() *FakeFileSystem {
	return &FakeFileSystem{
		files:     map[string]*FakeFileStats{},
		openFiles: map[string]*FakeFile{},
	}
}

// RegisterOpenFile makes the next OpenFile of path return file. Reads are
// recorded on file so tests can assert on I/O.
func (fs *FakeFileSystem) RegisterOpenFile(path string, file *FakeFile) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.openFiles[path] = file
}

func (fs *FakeFileSystem) ExpandPath(p string) (string, error) {
	if fs.ExpandPathErr != nil {
		return "", fs.ExpandPathErr
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p), nil
}

func (fs *FakeFileSystem) OpenFile(p string, flag int, perm os.FileMode) (boshsys.File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.OpenFileCallCount++
	fs.OpenFilePaths = append(fs.OpenFilePaths, p)

	if len(fs.OpenFileErrs) > 0 {
		err := fs.OpenFileErrs[0]
		fs.OpenFileErrs = fs.OpenFileErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	if fs.OpenFileErr != nil {
		return nil, fs.OpenFileErr
	}

	if file, found := fs.openFiles[p]; found {
		file.path = p
		if file.Stats == nil {
			file.Stats = fs.files[p]
		}
		if file.Contents == nil && file.Stats != nil {
			file.Contents = file.Stats.Content
		}
		file.reset()
		return file, nil
	}

	stats, found := fs.files[p]
	if !found {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}

	file := NewFakeFile(p, fs)
	file.Stats = stats
	file.Contents = stats.Content
	file.reset()
	return file, nil
}

func (fs *FakeFileSystem) Stat(p string) (os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.StatCallCount++

	if fs.StatErr != nil {
		return nil, fs.StatErr
	}

	stats, found := fs.files[p]
	if !found {
		return nil, &os.PathError{Op: "stat", Path: p, Err: os.ErrNotExist}
	}

	return NewFakeFileInfo(path.Base(p), stats), nil
}

func (fs *FakeFileSystem) ReadDir(dir string) ([]os.DirEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.ReadDirErr != nil {
		return nil, fs.ReadDirErr
	}

	stats, found := fs.files[dir]
	if !found {
		return nil, &os.PathError{Op: "open", Path: dir, Err: os.ErrNotExist}
	}
	if stats.FileType != FakeFileTypeDir {
		return nil, &os.PathError{Op: "readdirent", Path: dir, Err: errors.New("not a directory")}
	}

	var entries []os.DirEntry
	for p, stats := range fs.files {
		if p != dir && path.Dir(p) == dir {
			entries = append(entries, fakeDirEntry{NewFakeFileInfo(path.Base(p), stats)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

func (fs *FakeFileSystem) ReadFile(p string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stats, found := fs.files[p]
	if !found {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	return stats.Content, nil
}

func (fs *FakeFileSystem) ReadFileString(p string) (string, error) {
	content, err := fs.ReadFile(p)
	return string(content), err
}

func (fs *FakeFileSystem) WriteFile(p string, content []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAll(path.Dir(p))

	stats, found := fs.files[p]
	if !found {
		stats = &FakeFileStats{FileType: FakeFileTypeFile, FileMode: 0644}
		fs.files[p] = stats
	}
	stats.Content = append([]byte(nil), content...)
	if stats.ModTime.IsZero() {
		stats.ModTime = time.Unix(1700000000, 0)
	} else {
		stats.ModTime = stats.ModTime.Add(time.Second)
	}

	return nil
}

func (fs *FakeFileSystem) WriteFileString(p, content string) error {
	return fs.WriteFile(p, []byte(content))
}

func (fs *FakeFileSystem) MkdirAll(p string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirAll(p)
	return nil
}

func (fs *FakeFileSystem) RemoveAll(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for existing := range fs.files {
		if existing == p || strings.HasPrefix(existing, p+"/") {
			delete(fs.files, existing)
		}
	}
	return nil
}

func (fs *FakeFileSystem) GetFileTestStat(p string) *FakeFileStats {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.files[p]
}

func (fs *FakeFileSystem) mkdirAll(p string) {
	for p != "/" && p != "." && p != "" {
		if _, found := fs.files[p]; !found {
			fs.files[p] = &FakeFileStats{FileType: FakeFileTypeDir, FileMode: os.ModeDir | 0755}
		}
		p = path.Dir(p)
	}
}

type FakeFile struct {
	path string
	fs   *FakeFileSystem

	Contents []byte
	Stats    *FakeFileStats

	mu     sync.Mutex
	reader *bytes.Reader

	// StatSize replaces the size Stat reports when set, like procfs entries
	// that report zero but have contents.
	StatSize *int64

	ReadErr        error
	ReadErrAfter   int
	ReadCallCount  int
	BytesRead      int
	StatErr        error
	CloseErr       error
	CloseCallCount int
}

func NewFakeFile(path string, fs *FakeFileSystem) *FakeFile {
	return &FakeFile{path: path, fs: fs}
}

func (f *FakeFile) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reader = bytes.NewReader(f.Contents)
}

func (f *FakeFile) Name() string {
	return f.path
}

// Read fails with ReadErr once ReadErrAfter successful reads have happened.
func (f *FakeFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ReadCallCount++

	if f.ReadErr != nil && f.ReadCallCount > f.ReadErrAfter {
		return 0, f.ReadErr
	}

	if f.reader == nil {
		f.reader = bytes.NewReader(f.Contents)
	}

	n, err := f.reader.Read(p)
	f.BytesRead += n
	if err == io.EOF {
		return n, io.EOF
	}
	return n, err
}

func (f *FakeFile) Stat() (os.FileInfo, error) {
	if f.StatErr != nil {
		return nil, f.StatErr
	}

	stats := f.Stats
	if stats == nil {
		stats = &FakeFileStats{FileType: FakeFileTypeFile, Content: f.Contents}
	}

	info := NewFakeFileInfo(path.Base(f.path), stats)
	if len(stats.Content) == 0 && len(f.Contents) > 0 {
		info.size = int64(len(f.Contents))
	}
	if f.StatSize != nil {
		info.size = *f.StatSize
	}
	return info, nil
}

func (f *FakeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCallCount++
	return f.CloseErr
}

type FakeFileInfo struct {
	name  string
	size  int64
	stats *FakeFileStats
}

func NewFakeFileInfo(name string, stats *FakeFileStats) *FakeFileInfo {
	return &FakeFileInfo{name: name, size: int64(len(stats.Content)), stats: stats}
}

func (fi *FakeFileInfo) Name() string       { return fi.name }
func (fi *FakeFileInfo) Size() int64        { return fi.size }
func (fi *FakeFileInfo) ModTime() time.Time { return fi.stats.ModTime }
func (fi *FakeFileInfo) IsDir() bool        { return fi.stats.FileType == FakeFileTypeDir }
func (fi *FakeFileInfo) Sys() interface{}   { return nil }

func (fi *FakeFileInfo) Mode() os.FileMode {
	switch fi.stats.FileType {
	case FakeFileTypeDir:
		return os.ModeDir | fi.stats.FileMode.Perm()
	case FakeFileTypeSymlink:
		return os.ModeSymlink | fi.stats.FileMode.Perm()
	default:
		return fi.stats.FileMode.Perm()
	}
}

type fakeDirEntry struct {
	info *FakeFileInfo
}

func (e fakeDirEntry) Name() string               { return e.info.Name() }
func (e fakeDirEntry) IsDir() bool                { return e.info.IsDir() }
func (e fakeDirEntry) Type() os.FileMode          { return e.info.Mode().Type() }
func (e fakeDirEntry) Info() (os.FileInfo, error) { return e.info, nil }
