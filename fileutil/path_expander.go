package fileutil

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
)

const pathExpanderLogTag = "pathExpander"

//counterfeiter:generate . PathExpander

type PathExpander interface {
	// Expand turns file paths, directories and glob patterns into a list of
	// file paths. Literal paths are kept even when they do not exist.
	Expand(patterns []string) ([]string, error)
}

type ExpandOptions struct {
	// Recursive makes directories expand to every file below them
	// instead of only their direct children.
	Recursive bool
}

type pathExpander struct {
	fs     boshsys.FileSystem
	logger boshlog.Logger
	opts   ExpandOptions
}

func NewPathExpander(fs boshsys.FileSystem, logger boshlog.Logger, opts ExpandOptions) PathExpander {
	return pathExpander{fs: fs, logger: logger, opts: opts}
}

func (e pathExpander) Expand(patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	paths := []string{}

	add := func(path string) {
		if _, found := seen[path]; found {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, pattern := range e.convertDirectoriesToGlobs(patterns) {
		if !hasGlobMeta(pattern) {
			add(pattern)
			continue
		}

		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return nil, bosherr.WrapErrorf(err, "Finding files matching '%s'", pattern)
		}

		sort.Strings(matches)

		matchedFiles := 0
		for _, match := range matches {
			fileInfo, err := e.fs.Stat(match)
			if err != nil {
				return nil, bosherr.WrapErrorf(err, "Getting file info for '%s'", match)
			}

			if fileInfo.IsDir() {
				continue
			}

			add(match)
			matchedFiles++
		}

		e.logger.Debug(pathExpanderLogTag, "Pattern '%s' matched %d files", pattern, matchedFiles)
	}

	return paths, nil
}

func (e pathExpander) convertDirectoriesToGlobs(patterns []string) []string {
	convertedPatterns := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		expanded, err := e.fs.ExpandPath(pattern)
		if err != nil {
			e.logger.Warn(pathExpanderLogTag, "Failed to expand path '%s': %s", pattern, err)
			expanded = pattern
		}

		if hasGlobMeta(expanded) {
			convertedPatterns = append(convertedPatterns, expanded)
			continue
		}

		fileInfo, err := e.fs.Stat(expanded)
		if err == nil && fileInfo.IsDir() {
			if e.opts.Recursive {
				convertedPatterns = append(convertedPatterns, filepath.Join(expanded, "**", "*"))
			} else {
				convertedPatterns = append(convertedPatterns, filepath.Join(expanded, "*"))
			}
		} else {
			convertedPatterns = append(convertedPatterns, expanded)
		}
	}

	return convertedPatterns
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
