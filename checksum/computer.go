package checksum

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/jpillora/backoff"

	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const checksumComputerLogTag = "checksumComputer"

const (
	DefaultChunkSize      = 128 * 1024 * 1024
	DefaultOpenAttempts   = 3
	DefaultOpenRetryDelay = 100 * time.Millisecond

	// Smaller chunks are fed to the streams one after another.
	concurrentFeedThreshold = 1024 * 1024

	minBufferSize = 32 * 1024
)

//counterfeiter:generate . Computer
type Computer interface {
	// ComputeHashes reads path once and returns one digest per algorithm.
	// Nothing is returned on error, not even digests of the algorithms
	// that would have succeeded.
	ComputeHashes(ctx context.Context, path string, algorithms []string) (Result, FileStamp, error)
}

type ComputerOptions struct {
	ChunkSize      int
	OpenAttempts   int
	OpenRetryDelay time.Duration
}

type streamingComputer struct {
	fs     boshsys.FileSystem
	clock  clock.Clock
	logger boshlog.Logger

	chunkSize      int
	openAttempts   int
	openRetryDelay time.Duration
}

func NewComputer(
	fs boshsys.FileSystem,
	clock clock.Clock,
	logger boshlog.Logger,
	opts ComputerOptions,
) Computer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.OpenAttempts <= 0 {
		opts.OpenAttempts = DefaultOpenAttempts
	}
	if opts.OpenRetryDelay <= 0 {
		opts.OpenRetryDelay = DefaultOpenRetryDelay
	}

	return streamingComputer{
		fs:             fs,
		clock:          clock,
		logger:         logger,
		chunkSize:      opts.ChunkSize,
		openAttempts:   opts.OpenAttempts,
		openRetryDelay: opts.OpenRetryDelay,
	}
}

func (c streamingComputer) ComputeHashes(ctx context.Context, path string, algorithmNames []string) (Result, FileStamp, error) {
	algorithms, err := boshcrypto.ResolveAll(algorithmNames)
	if err != nil {
		return nil, FileStamp{}, err
	}

	file, err := c.openFile(ctx, path)
	if err != nil {
		return nil, FileStamp{}, err
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, FileStamp{}, bosherr.WrapErrorf(fmt.Errorf("%w: %w", ErrFileUnreadable, err), "Getting file info of '%s'", path)
	}

	if info.IsDir() {
		return nil, FileStamp{}, bosherr.WrapErrorf(fmt.Errorf("%w: is a directory", ErrFileUnreadable), "Opening file '%s' for digest calculation", path)
	}

	streams := make([]hash.Hash, len(algorithms))
	for i, algorithm := range algorithms {
		streams[i] = algorithm.CreateHash()
	}

	started := c.clock.Now()
	buf := make([]byte, c.bufferSize(info.Size()))
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, FileStamp{}, bosherr.WrapErrorf(err, "Hashing file '%s'", path)
		}

		n, readErr := io.ReadFull(file, buf)
		if n > 0 {
			feed(streams, buf[:n])
			total += int64(n)
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, FileStamp{}, bosherr.WrapErrorf(fmt.Errorf("%w: %w", ErrIOFailure, readErr), "Reading file '%s' for digest calculation", path)
		}
	}

	result := make(Result, len(algorithms))
	for i, algorithm := range algorithms {
		result[algorithm.Name()] = hex.EncodeToString(streams[i].Sum(nil))
	}

	c.logger.Debug(checksumComputerLogTag, "Hashed '%s' (%d bytes, %v) in %s", path, total, result.Algorithms(), c.clock.Since(started))

	return result, NewFileStamp(info), nil
}

func (c streamingComputer) openFile(ctx context.Context, path string) (boshsys.File, error) {
	retryBackoff := &backoff.Backoff{
		Min:    c.openRetryDelay,
		Max:    c.openRetryDelay * 10,
		Factor: 2,
	}

	for attempt := 1; ; attempt++ {
		file, err := c.fs.OpenFile(path, os.O_RDONLY, 0)
		if err == nil {
			return file, nil
		}

		if !isTransientOpenError(err) || attempt >= c.openAttempts {
			return nil, bosherr.WrapErrorf(classifyOpenError(err), "Opening file '%s' for digest calculation", path)
		}

		delay := retryBackoff.Duration()
		c.logger.Debug(checksumComputerLogTag, "Retrying open of '%s' in %s after attempt %d: %s", path, delay, attempt, err)

		timer := c.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, bosherr.WrapErrorf(ctx.Err(), "Opening file '%s' for digest calculation", path)
		case <-timer.C():
		}
	}
}

// bufferSize never goes below minBufferSize (or the chunk size, if smaller)
// since some files, like procfs entries, report a size of zero.
func (c streamingComputer) bufferSize(fileSize int64) int {
	size := c.chunkSize
	// One extra byte lets a file that fits the buffer hit EOF on the first read.
	if fileSize >= 0 && fileSize < int64(c.chunkSize) {
		size = int(fileSize) + 1
	}
	if size < minBufferSize {
		size = min(minBufferSize, c.chunkSize)
	}
	return size
}

// feed writes chunk to every stream before returning so the next chunk is
// never read while a stream is still behind.
func feed(streams []hash.Hash, chunk []byte) {
	if len(streams) == 1 || len(chunk) < concurrentFeedThreshold {
		for _, stream := range streams {
			stream.Write(chunk)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(streams))
	for _, stream := range streams {
		go func(stream hash.Hash) {
			defer wg.Done()
			stream.Write(chunk)
		}(stream)
	}
	wg.Wait()
}

func classifyOpenError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrFileUnreadable, err)
}

func isTransientOpenError(err error) bool {
	return errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE)
}
