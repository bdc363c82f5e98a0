package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudfoundry/bosh-multidigest/api"
	boshcrypto "github.com/cloudfoundry/bosh-multidigest/crypto"
	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	"github.com/cloudfoundry/bosh-multidigest/fileutil"
)

type options struct {
	ConfigPath string `short:"c" long:"config" description:"Path to a YAML config file" env:"MULTIDIGEST_CONFIG"`
	LogLevel   string `long:"log-level" description:"Log level (DEBUG, INFO, WARN, ERROR, NONE); overrides log_level from the config"`
	Target     string `long:"target" description:"URL of a bosh-multidigest server to hash on instead of locally" env:"MULTIDIGEST_TARGET"`
	CACert     string `long:"ca-cert" description:"CA certificate used to verify the target"`

	Hash       hashCommand       `command:"hash" description:"Compute digests of one file"`
	Batch      batchCommand      `command:"batch" description:"Compute digests of many files"`
	Scan       scanCommand       `command:"scan" description:"List the files directly inside a directory"`
	Verify     verifyCommand     `command:"verify" description:"Check a file against expected digests"`
	Algorithms algorithmsCommand `command:"algorithms" description:"List supported algorithms"`
	Serve      serveCommand      `command:"serve" description:"Serve the hashing operations over HTTP"`
}

func (o *options) bind(a *app) {
	o.Hash.app = a
	o.Batch.app = a
	o.Scan.app = a
	o.Verify.app = a
	o.Algorithms.app = a
	o.Serve.app = a
}

type hashCommand struct {
	Algorithms []string `short:"a" long:"algorithm" description:"Digest algorithm, repeatable" default:"SHA256"`
	Args       struct {
		Path string `positional-arg-name:"PATH" required:"true"`
	} `positional-args:"yes"`

	app *app
}

func (c *hashCommand) Execute(_ []string) error {
	err := c.app.setup(false)
	if err != nil {
		return err
	}

	service, err := c.app.service()
	if err != nil {
		return err
	}

	response := service.ComputeFileHash(context.Background(), c.Args.Path, c.Algorithms)

	err = c.app.print(response)
	if err != nil {
		return err
	}

	if !response.Success {
		return bosherr.Errorf("Hashing '%s' failed", c.Args.Path)
	}

	return nil
}

type batchCommand struct {
	Algorithms []string `short:"a" long:"algorithm" description:"Digest algorithm, repeatable" default:"SHA256"`
	Globs      []string `short:"g" long:"glob" description:"Glob pattern (** matches nested directories), repeatable"`
	Recursive  bool     `short:"r" long:"recursive" description:"Hash every file below directory arguments, not only direct children"`
	Args       struct {
		Paths []string `positional-arg-name:"PATH"`
	} `positional-args:"yes"`

	app *app
}

func (c *batchCommand) Execute(_ []string) error {
	err := c.app.setup(false)
	if err != nil {
		return err
	}

	paths := append([]string{}, c.Args.Paths...)

	// Remote paths live on the server, so they are sent verbatim.
	if c.app.remote() {
		if len(c.Globs) > 0 || c.Recursive {
			return bosherr.Error("Glob patterns and directory recursion cannot be used with --target")
		}
	} else {
		expander := fileutil.NewPathExpander(c.app.fs, c.app.logger, fileutil.ExpandOptions{Recursive: c.Recursive})

		paths, err = expander.Expand(append(paths, c.Globs...))
		if err != nil {
			return err
		}
	}

	if len(paths) == 0 {
		return bosherr.Error("No files to hash")
	}

	service, err := c.app.service()
	if err != nil {
		return err
	}

	response := service.ComputeBatchHashes(context.Background(), paths, c.Algorithms)

	err = c.app.print(response)
	if err != nil {
		return err
	}

	if !response.Success {
		return bosherr.Error("Hashing batch failed")
	}

	for _, item := range response.Results {
		if !item.Success {
			return bosherr.Error("Hashing some files failed")
		}
	}

	return nil
}

type scanCommand struct {
	Args struct {
		Dir string `positional-arg-name:"DIR" required:"true"`
	} `positional-args:"yes"`

	app *app
}

func (c *scanCommand) Execute(_ []string) error {
	err := c.app.setup(false)
	if err != nil {
		return err
	}

	service, err := c.app.service()
	if err != nil {
		return err
	}

	response := service.ScanDirectory(c.Args.Dir)

	err = c.app.print(response)
	if err != nil {
		return err
	}

	if !response.Success {
		return bosherr.Errorf("Scanning '%s' failed", c.Args.Dir)
	}

	return nil
}

type verifyCommand struct {
	Args struct {
		Path    string   `positional-arg-name:"PATH" required:"true"`
		Digests []string `positional-arg-name:"DIGEST" required:"1" description:"Expected digest as ALGORITHM:HEX or bare hex"`
	} `positional-args:"yes"`

	app *app
}

type verifyResult struct {
	FilePath string   `json:"filePath"`
	Success  bool     `json:"success"`
	Verified []string `json:"verified,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (c *verifyCommand) Execute(_ []string) error {
	err := c.app.setup(false)
	if err != nil {
		return err
	}

	expected := make([]boshcrypto.Digest, 0, len(c.Args.Digests))
	algorithms := make([]string, 0, len(c.Args.Digests))

	for _, digestString := range c.Args.Digests {
		digest, err := boshcrypto.ParseDigestString(digestString)
		if err != nil {
			return bosherr.WrapErrorf(err, "Parsing expected digest '%s'", digestString)
		}

		expected = append(expected, digest)
		algorithms = append(algorithms, digest.Algorithm().Name())
	}

	service, err := c.app.service()
	if err != nil {
		return err
	}

	response := service.ComputeFileHash(context.Background(), c.Args.Path, algorithms)
	if !response.Success {
		_ = c.app.print(verifyResult{FilePath: c.Args.Path, Error: response.Error})
		return bosherr.Errorf("Hashing '%s' failed", c.Args.Path)
	}

	actual, err := boshcrypto.NewMultipleDigestFromMap(response.Results)
	if err != nil {
		return bosherr.WrapError(err, "Reading computed digests")
	}

	result := verifyResult{FilePath: c.Args.Path, Success: true}

	for _, digest := range expected {
		err = boshcrypto.Verify(actual, digest)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			break
		}
		result.Verified = append(result.Verified, digest.String())
	}

	err = c.app.print(result)
	if err != nil {
		return err
	}

	if !result.Success {
		return bosherr.Errorf("Verifying '%s' failed", c.Args.Path)
	}

	return nil
}

type algorithmsCommand struct {
	app *app
}

func (c *algorithmsCommand) Execute(_ []string) error {
	err := c.app.setup(false)
	if err != nil {
		return err
	}

	algorithms := boshcrypto.SupportedAlgorithms()

	if c.app.remote() {
		client, err := c.app.hashClient()
		if err != nil {
			return err
		}

		algorithms, err = client.Algorithms(context.Background())
		if err != nil {
			return err
		}
	}

	return c.app.print(api.AlgorithmsResponse{Algorithms: algorithms})
}

type serveCommand struct {
	Listen string `short:"l" long:"listen" description:"Address to listen on; overrides listen from the config"`

	app *app
}

func (c *serveCommand) Execute(_ []string) error {
	err := c.app.setup(true)
	if err != nil {
		return err
	}
	defer c.app.logger.FlushTimeout(shutdownFlushTimeout) //nolint:errcheck

	if c.app.remote() {
		return bosherr.Error("Serving cannot be combined with --target")
	}

	listen := c.app.config.Listen
	if c.Listen != "" {
		listen = c.Listen
	}

	tlsFiles := api.TLSFiles{
		CertPath: c.app.config.TLS.CertPath,
		KeyPath:  c.app.config.TLS.KeyPath,
		CAPath:   c.app.config.TLS.CAPath,
	}

	server := api.NewServer(listen, api.NewRouter(c.app.localService(), c.app.logger), tlsFiles, c.app.logger)

	addr, err := server.Listen()
	if err != nil {
		return err
	}

	c.app.logger.Info(mainLogTag, "Serving on '%s' with parallelism %d", addr, c.app.config.MaxParallelism)
	_, _ = c.app.stdout.Write([]byte("Listening on " + addr.String() + "\n"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}
