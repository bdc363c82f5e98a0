package hashservice

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/cloudfoundry/bosh-multidigest/batch"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
	boshuuid "github.com/cloudfoundry/bosh-multidigest/uuid"
)

const hashServiceLogTag = "hashService"

type FileHashResponse struct {
	Success bool              `json:"success"`
	Results map[string]string `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type BatchItemResponse struct {
	FilePath string            `json:"filePath"`
	Success  bool              `json:"success"`
	Results  map[string]string `json:"results,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type BatchHashResponse struct {
	Success bool                `json:"success"`
	Results []BatchItemResponse `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type ScanDirectoryResponse struct {
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Service shapes scheduler results into the responses the presentation
// layer renders. It never returns Go errors; failures travel in the
// response.
type Service interface {
	ComputeFileHash(ctx context.Context, path string, algorithms []string) FileHashResponse
	ComputeBatchHashes(ctx context.Context, paths []string, algorithms []string) BatchHashResponse
	ScanDirectory(dir string) ScanDirectoryResponse
}

type service struct {
	scheduler *batch.Scheduler
	fs        boshsys.FileSystem
	uuidGen   boshuuid.Generator
	logger    boshlog.Logger
}

func NewService(
	scheduler *batch.Scheduler,
	fs boshsys.FileSystem,
	uuidGen boshuuid.Generator,
	logger boshlog.Logger,
) Service {
	return service{
		scheduler: scheduler,
		fs:        fs,
		uuidGen:   uuidGen,
		logger:    logger,
	}
}

func (s service) ComputeFileHash(ctx context.Context, path string, algorithms []string) FileHashResponse {
	result, err := s.scheduler.ComputeOne(ctx, path, algorithms)
	if err != nil {
		s.logger.Debug(hashServiceLogTag, "Hashing '%s' failed: %s", path, err)
		return FileHashResponse{Success: false, Error: err.Error()}
	}

	return FileHashResponse{Success: true, Results: result}
}

func (s service) ComputeBatchHashes(ctx context.Context, paths []string, algorithms []string) BatchHashResponse {
	batchID, err := s.uuidGen.Generate()
	if err != nil {
		return BatchHashResponse{Success: false, Error: bosherr.WrapError(err, "Generating batch id").Error()}
	}

	s.logger.Info(hashServiceLogTag, "Batch %s: hashing %d files with %v", batchID, len(paths), algorithms)

	items, err := s.scheduler.ComputeBatch(ctx, paths, algorithms)
	if err != nil {
		s.logger.Error(hashServiceLogTag, "Batch %s failed: %s", batchID, err)
		return BatchHashResponse{Success: false, Error: err.Error()}
	}

	responses := make([]BatchItemResponse, len(items))
	for i, item := range items {
		responses[i] = BatchItemResponse{FilePath: item.Path, Success: item.Succeeded()}
		if item.Succeeded() {
			responses[i].Results = item.Result
		} else {
			responses[i].Error = item.Err.Error()
		}
	}

	s.logger.Info(hashServiceLogTag, "Batch %s: done", batchID)

	return BatchHashResponse{Success: true, Results: responses}
}

// ScanDirectory lists every entry directly inside dir, subdirectories
// included, sorted and joined with dir. It does not descend.
func (s service) ScanDirectory(dir string) ScanDirectoryResponse {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return ScanDirectoryResponse{Success: false, Error: err.Error()}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	return ScanDirectoryResponse{Success: true, Files: files}
}
