// Package cmd implements the CLI command structure for taskvault.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskvault/internal/config"
	"github.com/nibzard/taskvault/internal/storage"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the taskvault CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskvault", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	logger := newLogger(cfg)

	// Determine the subcommand; default to "list".
	subcommand := "list"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return addCommand(ctx, cfg, logger, remainingArgs)
	case "list", "ls":
		return listCommand(ctx, cfg, remainingArgs)
	case "done":
		return doneCommand(ctx, cfg, logger, remainingArgs)
	case "undone":
		return undoneCommand(ctx, cfg, logger, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, logger, remainingArgs)
	case "due":
		return dueCommand(ctx, cfg, logger, remainingArgs)
	case "rm":
		return rmCommand(ctx, cfg, logger, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newStore builds the storage façade from config.
func newStore(cfg *config.Config) (*storage.Store, error) {
	return storage.New(cfg.DBFile,
		storage.WithBackup(cfg.KeepBackup),
		storage.WithFileLock(cfg.FileLock),
		storage.WithLockTimeout(time.Duration(cfg.LockTimeoutSeconds)*time.Second),
	)
}

// newLogger builds the console logger from config.
func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           parseLogLevel(cfg.LogLevel),
		Formatter:       parseLogFormatter(cfg.LogFormat),
		ReportTimestamp: false,
	})
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func parseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Taskvault - A durable JSON-backed task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskvault [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  add <text>      Add a task")
	fmt.Fprintln(w, "  list            List tasks (default command)")
	fmt.Fprintln(w, "  done <id>       Mark a task done")
	fmt.Fprintln(w, "  undone <id>     Mark a task not done")
	fmt.Fprintln(w, "  edit <id> <text>  Replace a task's text")
	fmt.Fprintln(w, "  due <id> <date>   Set a due date (YYYY-MM-DD)")
	fmt.Fprintln(w, "  rm <id>         Delete a task")
	fmt.Fprintln(w, "  doctor          Check the database against the schema")
	fmt.Fprintln(w, "  tui             Launch terminal UI")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w, "  help            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("taskvault version %s\n", Version)
	return nil
}
