package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/OpenGG/jbtool/internal/cli"
	"github.com/OpenGG/jbtool/internal/jbt"
	"github.com/OpenGG/jbtool/internal/jbt/process"
)

var (
	exitFunc   = os.Exit
	newMatcher = func(logger *slog.Logger) process.Matcher {
		return process.NewSystem(logger)
	}
)

func main() {
	interactive := !jbt.IsNonInteractive() && cli.IsTerminal(os.Stdin, os.Stdout)
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr, interactive))
}

// run executes jbtool and returns the exit status. User-facing output, errors
// included, goes to stdout; logs go to stderr.
func run(args []string, stdout, stderr io.Writer, interactive bool) int {
	logger := newLogger(stderr, parseLogFlags(args))

	home, err := jbt.ResolveToolHome()
	if err != nil {
		cli.Report(stdout, err)
		return 1
	}
	configRoot, err := jbt.ResolveConfigRoot()
	if err != nil {
		cli.Report(stdout, err)
		return 1
	}

	mgr := jbt.NewManager(afero.NewOsFs(), home, configRoot, newMatcher(logger), logger)
	if err := mgr.InitInfra(); err != nil {
		cli.Report(stdout, err)
		return 1
	}

	var prompter cli.Prompter
	if interactive {
		prompter = cli.NewPromptUI()
	}

	cmd := cli.NewRootCommand(mgr, prompter, stdout, stdout)
	cmd.SetArgs(args)
	err = cmd.Execute()
	if err != nil {
		logger.Debug("command failed", "error", err)
	}
	cli.Report(stdout, err)
	return cli.ExitCode(err)
}

type logOptions struct {
	verbose bool
	json    bool
}

// parseLogFlags picks the global logging flags out of args ahead of cobra, which
// parses them again, because the logger is needed to build the manager.
func parseLogFlags(args []string) logOptions {
	var opts logOptions
	fs := pflag.NewFlagSet("jbtool", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.BoolVarP(&opts.verbose, cli.FlagVerbose, "v", false, "")
	fs.BoolVar(&opts.json, cli.FlagLogJSON, false, "")
	// Help and malformed flags are cobra's to report.
	_ = fs.Parse(args)
	return opts
}

func newLogger(w io.Writer, opts logOptions) *slog.Logger {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.json {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
