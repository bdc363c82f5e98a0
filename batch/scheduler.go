package batch

import (
	"context"
	"runtime"

	"code.cloudfoundry.org/clock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cloudfoundry/bosh-multidigest/cache"
	"github.com/cloudfoundry/bosh-multidigest/checksum"
	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
)

const batchSchedulerLogTag = "batchScheduler"

// MaxParallelism caps the number of files hashed at once.
const MaxParallelism = 8

func DefaultParallelism() int {
	return clampParallelism(2 * runtime.NumCPU())
}

func clampParallelism(parallelism int) int {
	if parallelism > MaxParallelism {
		return MaxParallelism
	}
	if parallelism < 1 {
		return 1
	}
	return parallelism
}

// Item is the outcome for one input path. Exactly one of Result and Err is set.
type Item struct {
	Path   string
	Result checksum.Result
	Err    error
}

func (i Item) Succeeded() bool {
	return i.Err == nil
}

type Options struct {
	// Parallelism is clamped to [1, MaxParallelism]; zero means DefaultParallelism.
	Parallelism int

	// CheckFreshness stats the file on a cache hit and recomputes when its
	// size or modification time changed since the result was cached.
	CheckFreshness bool
}

type Scheduler struct {
	computer checksum.Computer
	cache    cache.ResultCache
	fs       boshsys.FileSystem
	clock    clock.Clock
	logger   boshlog.Logger

	parallelism    int
	checkFreshness bool

	inflight singleflight.Group
}

func NewScheduler(
	computer checksum.Computer,
	resultCache cache.ResultCache,
	fs boshsys.FileSystem,
	clock clock.Clock,
	logger boshlog.Logger,
	opts Options,
) *Scheduler {
	parallelism := DefaultParallelism()
	if opts.Parallelism != 0 {
		parallelism = clampParallelism(opts.Parallelism)
	}

	return &Scheduler{
		computer:       computer,
		cache:          resultCache,
		fs:             fs,
		clock:          clock,
		logger:         logger,
		parallelism:    parallelism,
		checkFreshness: opts.CheckFreshness,
	}
}

func (s *Scheduler) Parallelism() int {
	return s.parallelism
}

func (s *Scheduler) ComputeOne(ctx context.Context, path string, algorithms []string) (checksum.Result, error) {
	return s.hashFile(ctx, path, algorithms)
}

// ComputeBatch hashes paths in consecutive groups of at most Parallelism
// files. Files inside a group run concurrently; the next group starts once
// the whole group is done. Per-file failures are reported on the items and
// the returned slice always lines up with paths. An error is only returned
// when the batch itself could not run to completion.
func (s *Scheduler) ComputeBatch(ctx context.Context, paths []string, algorithms []string) ([]Item, error) {
	started := s.clock.Now()

	items := make([]Item, len(paths))
	for i, path := range paths {
		items[i].Path = path
	}

	if _, err := boshcrypto.ResolveAll(algorithms); err != nil {
		for i := range items {
			items[i].Err = err
		}
		return items, nil
	}

	for start := 0; start < len(paths); start += s.parallelism {
		if err := ctx.Err(); err != nil {
			return nil, bosherr.WrapErrorf(err, "Scheduling batch group starting at file %d", start)
		}

		end := start + s.parallelism
		if end > len(paths) {
			end = len(paths)
		}

		var group errgroup.Group
		for i := start; i < end; i++ {
			group.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						items[i].Result = nil
						items[i].Err = bosherr.Errorf("Hashing '%s' panicked: %v", items[i].Path, r)
					}
				}()

				items[i].Result, items[i].Err = s.hashFile(ctx, items[i].Path, algorithms)
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, bosherr.WrapError(err, "Running batch group")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, bosherr.WrapError(err, "Running batch")
	}

	failed := 0
	for _, item := range items {
		if !item.Succeeded() {
			failed++
		}
	}
	s.logger.Debug(batchSchedulerLogTag, "Hashed %d files (%d failed) in %s", len(items), failed, s.clock.Since(started))

	return items, nil
}

func (s *Scheduler) hashFile(ctx context.Context, path string, algorithms []string) (checksum.Result, error) {
	if _, err := boshcrypto.ResolveAll(algorithms); err != nil {
		return nil, err
	}

	absPath, err := s.fs.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(absPath, algorithms)
	if result, hit := s.lookup(key); hit {
		return result.ForNames(algorithms), nil
	}

	// Concurrent requests for one key share a single read of the file.
	value, err, _ := s.inflight.Do(key.String(), func() (value interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				value, err = nil, bosherr.Errorf("Hashing '%s' panicked: %v", absPath, r)
			}
		}()

		if result, hit := s.lookup(key); hit {
			return result, nil
		}

		result, stamp, err := s.computer.ComputeHashes(ctx, absPath, algorithms)
		if err != nil {
			return nil, err
		}

		s.cache.Put(key, cache.Entry{Result: result, Stamp: stamp})

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(checksum.Result).ForNames(algorithms), nil
}

func (s *Scheduler) lookup(key cache.Key) (checksum.Result, bool) {
	entry, found := s.cache.Get(key)
	if !found {
		return nil, false
	}

	if s.checkFreshness {
		info, err := s.fs.Stat(key.Path())
		if err != nil {
			s.logger.Debug(batchSchedulerLogTag, "Ignoring cached result for '%s': %s", key, err)
			return nil, false
		}

		if !checksum.NewFileStamp(info).Matches(entry.Stamp) {
			s.logger.Debug(batchSchedulerLogTag, "Ignoring stale cached result for '%s'", key)
			return nil, false
		}
	}

	s.logger.Debug(batchSchedulerLogTag, "Serving '%s' from cache", key)

	return entry.Result, true
}
