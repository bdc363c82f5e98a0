package main

import (
	"crypto/x509"
	"io"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/goccy/go-json"

	"github.com/cloudfoundry/bosh-multidigest/batch"
	"github.com/cloudfoundry/bosh-multidigest/cache"
	"github.com/cloudfoundry/bosh-multidigest/checksum"
	"github.com/cloudfoundry/bosh-multidigest/config"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	"github.com/cloudfoundry/bosh-multidigest/hashservice"
	"github.com/cloudfoundry/bosh-multidigest/httpclient"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
	boshsys "github.com/cloudfoundry/bosh-multidigest/system"
	boshuuid "github.com/cloudfoundry/bosh-multidigest/uuid"
)

const (
	remoteAttempts   = 3
	remoteRetryDelay = 500 * time.Millisecond
)

type app struct {
	opts   *options
	stdout io.Writer
	stderr io.Writer

	config config.Config
	logger boshlog.Logger
	fs     boshsys.FileSystem
	clock  clock.Clock
}

func newApp(opts *options, stdout, stderr io.Writer) *app {
	return &app{
		opts:   opts,
		stdout: stdout,
		stderr: stderr,
		clock:  clock.NewClock(),
	}
}

// setup runs after flag parsing, when the global options are known.
func (a *app) setup(async bool) error {
	bootstrapLogger := boshlog.NewWriterLogger(boshlog.LevelError, a.stderr)
	a.fs = boshsys.NewOsFileSystem(bootstrapLogger)

	cfg, err := config.Load(a.fs, a.opts.ConfigPath)
	if err != nil {
		return err
	}

	if a.opts.LogLevel != "" {
		cfg.LogLevel = a.opts.LogLevel
	}

	level, err := boshlog.Levelify(cfg.LogLevel)
	if err != nil {
		return bosherr.WrapError(err, "Parsing log level")
	}

	if async {
		a.logger = boshlog.NewAsyncWriterLogger(level, a.stderr)
	} else {
		a.logger = boshlog.NewWriterLogger(level, a.stderr)
	}

	a.fs = boshsys.NewOsFileSystem(a.logger)
	a.config = cfg

	return nil
}

func (a *app) remote() bool {
	return a.opts.Target != ""
}

func (a *app) localService() hashservice.Service {
	computer := checksum.NewComputer(a.fs, a.clock, a.logger, a.config.ComputerOptions())
	resultCache := cache.NewResultCache(a.config.CacheSize)
	scheduler := batch.NewScheduler(computer, resultCache, a.fs, a.clock, a.logger, a.config.BatchOptions())

	return hashservice.NewService(scheduler, a.fs, boshuuid.NewGenerator(), a.logger)
}

func (a *app) hashClient() (httpclient.HashClient, error) {
	client := httpclient.DefaultClient

	if a.opts.CACert != "" {
		caCert, err := a.fs.ReadFile(a.opts.CACert)
		if err != nil {
			return httpclient.HashClient{}, bosherr.WrapErrorf(err, "Reading CA certificate '%s'", a.opts.CACert)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return httpclient.HashClient{}, bosherr.Errorf("No certificates found in '%s'", a.opts.CACert)
		}

		client = httpclient.CreateDefaultClient(certPool)
	}

	retryClient := httpclient.NewRetryClient(client, remoteAttempts, remoteRetryDelay, a.clock, a.logger)

	return httpclient.NewHashClient(retryClient, a.opts.Target, a.logger), nil
}

func (a *app) service() (hashservice.Service, error) {
	if a.remote() {
		return a.hashClient()
	}

	return a.localService(), nil
}

func (a *app) print(value interface{}) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return bosherr.WrapError(err, "Marshalling output")
	}

	_, err = a.stdout.Write(append(out, '\n'))
	if err != nil {
		return bosherr.WrapError(err, "Writing output")
	}

	return nil
}
