package system_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	. "github.com/cloudfoundry/bosh-multidigest/system"
)

var _ = Describe("osFileSystem", func() {
	var (
		fs      FileSystem
		tempDir string
	)

	BeforeEach(func() {
		fs = NewOsFileSystem(boshlog.NewLogger(boshlog.LevelNone))
		tempDir = GinkgoT().TempDir()
	})

	Describe("ExpandPath", func() {
		It("returns absolute paths cleaned", func() {
			path, err := fs.ExpandPath(filepath.Join(tempDir, "a", "..", "b"))
			Expect(err).ToNot(HaveOccurred())
			Expect(path).To(MatchPath(filepath.Join(tempDir, "b")))
		})

		It("resolves relative paths against the working directory", func() {
			cwd, err := os.Getwd()
			Expect(err).ToNot(HaveOccurred())

			path, err := fs.ExpandPath("relative-file")
			Expect(err).ToNot(HaveOccurred())
			Expect(path).To(MatchPath(filepath.Join(cwd, "relative-file")))
		})

		It("expands the home directory", func() {
			home, err := os.UserHomeDir()
			Expect(err).ToNot(HaveOccurred())

			path, err := fs.ExpandPath("~/fake-file")
			Expect(err).ToNot(HaveOccurred())
			Expect(path).To(MatchPath(filepath.Join(home, "fake-file")))
		})
	})

	Describe("OpenFile", func() {
		It("opens files for reading", func() {
			filePath := filepath.Join(tempDir, "file")
			Expect(os.WriteFile(filePath, []byte("contents"), 0644)).To(Succeed())

			file, err := fs.OpenFile(filePath, os.O_RDONLY, 0)
			Expect(err).ToNot(HaveOccurred())
			defer file.Close()

			contents, err := io.ReadAll(file)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(contents)).To(Equal("contents"))
			Expect(file.Name()).To(Equal(filePath))
		})

		It("returns an os.ErrNotExist error for missing files", func() {
			_, err := fs.OpenFile(filepath.Join(tempDir, "missing"), os.O_RDONLY, 0)
			Expect(err).To(MatchError(os.ErrNotExist))
		})

		It("handles long paths", func() {
			longPath := tempDir
			for i := byte('A'); i <= 'Z'; i++ {
				longPath = filepath.Join(longPath, strings.Repeat(string(i), 8))
			}
			Expect(os.MkdirAll(longPath, 0755)).To(Succeed())
			filePath := filepath.Join(longPath, "file")
			Expect(os.WriteFile(filePath, []byte("deep"), 0644)).To(Succeed())

			file, err := fs.OpenFile(filePath, os.O_RDONLY, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(file.Close()).To(Succeed())
		})
	})

	Describe("ReadDir", func() {
		It("lists entries of a directory", func() {
			Expect(os.WriteFile(filepath.Join(tempDir, "a"), nil, 0644)).To(Succeed())
			Expect(os.Mkdir(filepath.Join(tempDir, "sub"), 0755)).To(Succeed())

			entries, err := fs.ReadDir(tempDir)
			Expect(err).ToNot(HaveOccurred())

			names := []string{}
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			Expect(names).To(ConsistOf("a", "sub"))
		})

		It("wraps errors for missing directories", func() {
			_, err := fs.ReadDir(filepath.Join(tempDir, "missing"))
			Expect(err).To(MatchError(ContainSubstring("Opening directory")))
		})
	})

	Describe("ReadFileString", func() {
		It("reads the whole file", func() {
			filePath := filepath.Join(tempDir, "file")
			Expect(os.WriteFile(filePath, []byte("fake-contents"), 0644)).To(Succeed())

			contents, err := fs.ReadFileString(filePath)
			Expect(err).ToNot(HaveOccurred())
			Expect(contents).To(Equal("fake-contents"))
		})
	})
})
