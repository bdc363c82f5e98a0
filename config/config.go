package config

import (
	"gopkg.in/yaml.v2"

	"github.com/cloudfoundry/bosh-multidigest/batch"
	"github.com/cloudfoundry/bosh-multidigest/cache"
	"github.com/cloudfoundry/bosh-multidigest/checksum"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
)

const DefaultListenAddress = "127.0.0.1:8640"

type Config struct {
	CacheSize      int    `yaml:"cache_size"`
	ChunkSize      int    `yaml:"chunk_size"`
	MaxParallelism int    `yaml:"max_parallelism"`
	CheckFreshness *bool  `yaml:"check_freshness"`
	OpenAttempts   int    `yaml:"open_attempts"`
	LogLevel       string `yaml:"log_level"`

	Listen string    `yaml:"listen"`
	TLS    TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	CertPath string `yaml:"cert"`
	KeyPath  string `yaml:"key"`
	CAPath   string `yaml:"ca"`
}

func (c TLSConfig) Enabled() bool {
	return c.CertPath != "" || c.KeyPath != ""
}

func Default() Config {
	checkFreshness := true

	return Config{
		CacheSize:      cache.DefaultMaxEntries,
		ChunkSize:      checksum.DefaultChunkSize,
		MaxParallelism: batch.DefaultParallelism(),
		CheckFreshness: &checkFreshness,
		OpenAttempts:   checksum.DefaultOpenAttempts,
		LogLevel:       "NONE",
		Listen:         DefaultListenAddress,
	}
}

// Load returns Default when path is empty. Keys missing from the file keep
// their default values.
func Load(fs boshsys.FileSystem, path string) (Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	contents, err := fs.ReadFile(path)
	if err != nil {
		return Config{}, bosherr.WrapErrorf(err, "Reading config file '%s'", path)
	}

	err = yaml.UnmarshalStrict(contents, &config)
	if err != nil {
		return Config{}, bosherr.WrapErrorf(err, "Unmarshalling config file '%s'", path)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, bosherr.WrapErrorf(err, "Validating config file '%s'", path)
	}

	return config, nil
}

func (c Config) Validate() error {
	errs := []error{}

	if c.CacheSize < 1 {
		errs = append(errs, bosherr.Errorf("Expected cache_size to be positive, got %d", c.CacheSize))
	}

	if c.ChunkSize < 1 {
		errs = append(errs, bosherr.Errorf("Expected chunk_size to be positive, got %d", c.ChunkSize))
	}

	if c.MaxParallelism < 1 || c.MaxParallelism > batch.MaxParallelism {
		errs = append(errs, bosherr.Errorf("Expected max_parallelism to be between 1 and %d, got %d", batch.MaxParallelism, c.MaxParallelism))
	}

	if c.OpenAttempts < 1 {
		errs = append(errs, bosherr.Errorf("Expected open_attempts to be positive, got %d", c.OpenAttempts))
	}

	if _, err := boshlog.Levelify(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if c.TLS.Enabled() && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		errs = append(errs, bosherr.Error("Expected both tls.cert and tls.key to be set"))
	}

	if c.TLS.CAPath != "" && !c.TLS.Enabled() {
		errs = append(errs, bosherr.Error("Expected tls.cert and tls.key to be set when tls.ca is set"))
	}

	if len(errs) > 0 {
		return bosherr.NewMultiError(errs...)
	}

	return nil
}

func (c Config) FreshnessChecked() bool {
	return c.CheckFreshness == nil || *c.CheckFreshness
}

func (c Config) ComputerOptions() checksum.ComputerOptions {
	return checksum.ComputerOptions{
		ChunkSize:    c.ChunkSize,
		OpenAttempts: c.OpenAttempts,
	}
}

func (c Config) BatchOptions() batch.Options {
	return batch.Options{
		Parallelism:    c.MaxParallelism,
		CheckFreshness: c.FreshnessChecked(),
	}
}
