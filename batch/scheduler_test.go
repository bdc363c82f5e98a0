package batch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/clock/fakeclock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/cloudfoundry/bosh-multidigest/batch"
	"github.com/cloudfoundry/bosh-multidigest/cache"
	"github.com/cloudfoundry/bosh-multidigest/checksum"
	"github.com/cloudfoundry/bosh-multidigest/checksum/checksumfakes"
	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
	fakesys "github.com/cloudfoundry/bosh-multidigest/system/fakes"
)

var _ = Describe("Scheduler", func() {
	var (
		ctx         context.Context
		logger      boshlog.Logger
		resultCache cache.ResultCache
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = boshlog.NewLogger(boshlog.LevelNone)
		resultCache = cache.NewResultCache(cache.DefaultMaxEntries)
	})

	Describe("parallelism", func() {
		It("defaults to at most MaxParallelism", func() {
			Expect(DefaultParallelism()).To(BeNumerically(">=", 1))
			Expect(DefaultParallelism()).To(BeNumerically("<=", MaxParallelism))
		})

		It("clamps configured values", func() {
			fs := fakesys.NewFakeFileSystem()
			computer := &checksumfakes.FakeComputer{}

			Expect(NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{Parallelism: 100}).Parallelism()).To(Equal(MaxParallelism))
			Expect(NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{Parallelism: -3}).Parallelism()).To(Equal(1))
			Expect(NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{Parallelism: 3}).Parallelism()).To(Equal(3))
			Expect(NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{}).Parallelism()).To(Equal(DefaultParallelism()))
		})
	})

	Context("with the streaming computer on the OS file system", func() {
		var (
			scheduler *Scheduler
			tempDir   string
			fs        boshsys.FileSystem
		)

		writeFile := func(name, contents string) string {
			path := filepath.Join(tempDir, name)
			Expect(os.WriteFile(path, []byte(contents), 0644)).To(Succeed())
			return path
		}

		BeforeEach(func() {
			tempDir = GinkgoT().TempDir()
			fs = boshsys.NewOsFileSystem(logger)
			computer := checksum.NewComputer(fs, clock.NewClock(), logger, checksum.ComputerOptions{})
			scheduler = NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{Parallelism: 2, CheckFreshness: true})
		})

		It("isolates failures to the file that failed and keeps input order", func() {
			paths := []string{
				writeFile("one", "something different"),
				writeFile("two", ""),
				filepath.Join(tempDir, "missing"),
				writeFile("four", "the checksum of c1oudc0w is deterministic"),
				writeFile("five", "something different"),
			}

			items, err := scheduler.ComputeBatch(ctx, paths, []string{"SHA1", "MD5"})
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(5))

			for i, item := range items {
				Expect(item.Path).To(Equal(paths[i]))
			}

			Expect(items[0].Err).ToNot(HaveOccurred())
			Expect(items[0].Result).To(Equal(checksum.Result{"SHA1": "da7102c07515effc353226eac2be923c916c5c94", "MD5": "0c895270853c3023cf2741bdfdab14e2"}))
			Expect(items[1].Err).ToNot(HaveOccurred())
			Expect(items[1].Result).To(Equal(checksum.Result{"SHA1": "da39a3ee5e6b4b0d3255bfef95601890afd80709", "MD5": "d41d8cd98f00b204e9800998ecf8427e"}))
			Expect(items[2].Succeeded()).To(BeFalse())
			Expect(items[2].Err).To(MatchError(checksum.ErrFileNotFound))
			Expect(items[2].Result).To(BeNil())
			Expect(items[3].Err).ToNot(HaveOccurred())
			Expect(items[3].Result).To(Equal(checksum.Result{"SHA1": "07e1306432667f916639d47481edc4f2ca456454", "MD5": "314b019d07b0d217aebb9aac04fd69d6"}))
			Expect(items[4].Err).ToNot(HaveOccurred())
			Expect(items[4].Result).To(Equal(items[0].Result))
		})

		It("recomputes when the file changed since it was cached", func() {
			path := writeFile("changing", "before")

			before, err := scheduler.ComputeOne(ctx, path, []string{"SHA256"})
			Expect(err).ToNot(HaveOccurred())

			writeFile("changing", "after the change")

			after, err := scheduler.ComputeOne(ctx, path, []string{"SHA256"})
			Expect(err).ToNot(HaveOccurred())
			Expect(after).ToNot(Equal(before))
		})

		It("serves the stale result when freshness checks are off", func() {
			computer := checksum.NewComputer(fs, clock.NewClock(), logger, checksum.ComputerOptions{})
			scheduler = NewScheduler(computer, resultCache, fs, clock.NewClock(), logger, Options{Parallelism: 2})

			path := writeFile("changing", "before")

			before, err := scheduler.ComputeOne(ctx, path, []string{"SHA256"})
			Expect(err).ToNot(HaveOccurred())

			writeFile("changing", "after the change")

			after, err := scheduler.ComputeOne(ctx, path, []string{"SHA256"})
			Expect(err).ToNot(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("keys the cache by absolute path", func() {
			path := writeFile("relative", "contents")
			cwd, err := os.Getwd()
			Expect(err).ToNot(HaveOccurred())
			relative, err := filepath.Rel(cwd, path)
			Expect(err).ToNot(HaveOccurred())

			_, err = scheduler.ComputeOne(ctx, relative, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())

			_, found := resultCache.Get(cache.NewKey(path, []string{"MD5"}))
			Expect(found).To(BeTrue())
		})
	})

	Context("with a fake computer", func() {
		var (
			fs        *fakesys.FakeFileSystem
			computer  *checksumfakes.FakeComputer
			scheduler *Scheduler
		)

		BeforeEach(func() {
			fs = fakesys.NewFakeFileSystem()
			computer = &checksumfakes.FakeComputer{}
			computer.ComputeHashesStub = func(_ context.Context, path string, algorithms []string) (checksum.Result, checksum.FileStamp, error) {
				return checksum.Result{"MD5": "digest-of-" + path}, checksum.FileStamp{}, nil
			}
			scheduler = NewScheduler(computer, resultCache, fs, fakeclock.NewFakeClock(time.Now()), logger, Options{Parallelism: 2})
		})

		It("fails every item without any I/O when an algorithm is unsupported", func() {
			items, err := scheduler.ComputeBatch(ctx, []string{"/a", "/b", "/c"}, []string{"SHA256", "CRC32"})
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(3))

			for _, item := range items {
				Expect(item.Err).To(MatchError(boshcrypto.ErrUnsupportedAlgorithm))
			}
			Expect(computer.ComputeHashesCallCount()).To(Equal(0))
			Expect(fs.OpenFileCallCount).To(Equal(0))
			Expect(fs.StatCallCount).To(Equal(0))
		})

		It("returns no items for an empty batch", func() {
			items, err := scheduler.ComputeBatch(ctx, []string{}, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(BeEmpty())
		})

		It("serves repeated requests from the cache", func() {
			_, err := scheduler.ComputeBatch(ctx, []string{"/a", "/b"}, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())

			items, err := scheduler.ComputeBatch(ctx, []string{"/a", "/b"}, []string{"md5"})
			Expect(err).ToNot(HaveOccurred())
			Expect(items[0].Result).To(Equal(checksum.Result{"MD5": "digest-of-/a"}))
			Expect(computer.ComputeHashesCallCount()).To(Equal(2))
		})

		It("hits the same cache entry regardless of algorithm order", func() {
			_, err := scheduler.ComputeOne(ctx, "/a", []string{"SHA256", "MD5"})
			Expect(err).ToNot(HaveOccurred())
			_, err = scheduler.ComputeOne(ctx, "/a", []string{"MD5", "SHA256"})
			Expect(err).ToNot(HaveOccurred())

			Expect(computer.ComputeHashesCallCount()).To(Equal(1))
		})

		It("hashes duplicate paths in one batch only once", func() {
			items, err := scheduler.ComputeBatch(ctx, []string{"/a", "/a", "/b", "/a"}, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())

			Expect(items[0].Result).To(Equal(items[1].Result))
			Expect(items[3].Result).To(Equal(items[0].Result))
			Expect(computer.ComputeHashesCallCount()).To(Equal(2))
		})

		It("passes absolute paths to the computer", func() {
			_, err := scheduler.ComputeOne(ctx, "relative/../file", []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())

			_, path, _ := computer.ComputeHashesArgsForCall(0)
			Expect(path).To(Equal("/file"))
		})

		It("does not cache failures", func() {
			computer.ComputeHashesStub = nil
			computer.ComputeHashesReturnsOnCall(0, nil, checksum.FileStamp{}, errors.New("fake-compute-error"))
			computer.ComputeHashesReturnsOnCall(1, checksum.Result{"MD5": "fake-digest"}, checksum.FileStamp{}, nil)

			_, err := scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
			Expect(err).To(MatchError("fake-compute-error"))
			Expect(resultCache.Len()).To(Equal(0))

			result, err := scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(checksum.Result{"MD5": "fake-digest"}))
			Expect(computer.ComputeHashesCallCount()).To(Equal(2))
		})

		It("runs groups one after another with at most Parallelism files at once", func() {
			var (
				mu      sync.Mutex
				running int
				maxSeen int
				events  []string
			)

			computer.ComputeHashesStub = func(_ context.Context, path string, _ []string) (checksum.Result, checksum.FileStamp, error) {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				events = append(events, "start "+path)
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				running--
				events = append(events, "end "+path)
				mu.Unlock()

				return checksum.Result{"MD5": path}, checksum.FileStamp{}, nil
			}

			paths := []string{"/0", "/1", "/2", "/3", "/4"}
			items, err := scheduler.ComputeBatch(ctx, paths, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())

			for i, item := range items {
				Expect(item.Result).To(Equal(checksum.Result{"MD5": paths[i]}))
			}

			Expect(maxSeen).To(Equal(2))
			Expect(events).To(HaveLen(10))

			position := map[string]int{}
			for i, event := range events {
				position[event] = i
			}
			groups := [][]string{{"/0", "/1"}, {"/2", "/3"}, {"/4"}}
			for g := 1; g < len(groups); g++ {
				for _, previous := range groups[g-1] {
					for _, current := range groups[g] {
						Expect(position["end "+previous]).To(BeNumerically("<", position["start "+current]),
							fmt.Sprintf("%s started before %s finished", current, previous))
					}
				}
			}
		})

		It("fails the batch when the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			items, err := scheduler.ComputeBatch(cancelled, []string{"/a"}, []string{"MD5"})
			Expect(err).To(MatchError(context.Canceled))
			Expect(items).To(BeNil())
			Expect(computer.ComputeHashesCallCount()).To(Equal(0))
		})

		It("fails the batch when the context is cancelled while a group runs", func() {
			cancellable, cancel := context.WithCancel(ctx)
			computer.ComputeHashesStub = func(ctx context.Context, path string, _ []string) (checksum.Result, checksum.FileStamp, error) {
				cancel()
				return nil, checksum.FileStamp{}, ctx.Err()
			}

			_, err := scheduler.ComputeBatch(cancellable, []string{"/a", "/b", "/c"}, []string{"MD5"})
			Expect(err).To(MatchError(context.Canceled))
			Expect(computer.ComputeHashesCallCount()).To(BeNumerically("<=", 2))
			Expect(resultCache.Len()).To(Equal(0))
		})

		It("reports a panicking computation on its own item only", func() {
			computer.ComputeHashesStub = func(_ context.Context, path string, _ []string) (checksum.Result, checksum.FileStamp, error) {
				if path == "/b" {
					panic("fake-panic")
				}
				return checksum.Result{"MD5": "digest-of-" + path}, checksum.FileStamp{}, nil
			}

			items, err := scheduler.ComputeBatch(ctx, []string{"/a", "/b", "/c"}, []string{"MD5"})
			Expect(err).ToNot(HaveOccurred())
			Expect(items).To(HaveLen(3))

			Expect(items[0].Result).To(Equal(checksum.Result{"MD5": "digest-of-/a"}))
			Expect(items[1].Succeeded()).To(BeFalse())
			Expect(items[1].Result).To(BeNil())
			Expect(items[1].Err).To(MatchError(ContainSubstring("Hashing '/b' panicked: fake-panic")))
			Expect(items[2].Result).To(Equal(checksum.Result{"MD5": "digest-of-/c"}))

			_, found := resultCache.Get(cache.NewKey("/b", []string{"MD5"}))
			Expect(found).To(BeFalse())
		})

		Context("when checking freshness", func() {
			BeforeEach(func() {
				scheduler = NewScheduler(computer, resultCache, fs, fakeclock.NewFakeClock(time.Now()), logger, Options{Parallelism: 2, CheckFreshness: true})
				computer.ComputeHashesStub = func(_ context.Context, path string, _ []string) (checksum.Result, checksum.FileStamp, error) {
					info, err := fs.Stat(path)
					if err != nil {
						return nil, checksum.FileStamp{}, err
					}
					return checksum.Result{"MD5": "fake"}, checksum.NewFileStamp(info), nil
				}
				Expect(fs.WriteFileString("/a", "contents")).To(Succeed())
			})

			It("serves unchanged files from the cache", func() {
				_, err := scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).ToNot(HaveOccurred())
				_, err = scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).ToNot(HaveOccurred())

				Expect(computer.ComputeHashesCallCount()).To(Equal(1))
			})

			It("recomputes files whose modification time changed", func() {
				_, err := scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).ToNot(HaveOccurred())

				Expect(fs.WriteFileString("/a", "contents")).To(Succeed())

				_, err = scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).ToNot(HaveOccurred())
				Expect(computer.ComputeHashesCallCount()).To(Equal(2))
			})

			It("lets the computer report files that disappeared", func() {
				_, err := scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).ToNot(HaveOccurred())

				Expect(fs.RemoveAll("/a")).To(Succeed())

				_, err = scheduler.ComputeOne(ctx, "/a", []string{"MD5"})
				Expect(err).To(MatchError(os.ErrNotExist))
			})
		})
	})
})
