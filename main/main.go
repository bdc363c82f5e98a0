package main

import (
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const (
	mainLogTag = "main"

	shutdownFlushTimeout = 5 * time.Second
)

func main() {
	logger := boshlog.NewLogger(boshlog.LevelError)
	defer logger.HandlePanic("Main")

	exitCode := run(os.Args[1:], os.Stdout, os.Stderr)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	a := newApp(opts, stdout, stderr)
	opts.bind(a)

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "bosh-multidigest"

	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			_, _ = io.WriteString(stdout, err.Error()+"\n")
			return 0
		}

		_, _ = io.WriteString(stderr, err.Error()+"\n")
		return 1
	}

	return 0
}
