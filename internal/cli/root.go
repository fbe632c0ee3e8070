package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"dgcreview/api/internal/config"
	"dgcreview/api/internal/logging"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// runtimeError marks failures that happened after the arguments were
// accepted.
type runtimeError struct {
	err error
}

func (e runtimeError) Error() string { return e.err.Error() }
func (e runtimeError) Unwrap() error { return e.err }

func runtimeErr(err error) error {
	if err == nil {
		return nil
	}
	return runtimeError{err: err}
}

type globalFlags struct {
	cardsFile   string
	reviewsFile string
	storage     string
	logLevel    string
}

// Run executes the command line and returns the process exit code.
func Run() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var rt runtimeError
		if errors.As(err, &rt) {
			return ExitRuntimeError
		}
		return ExitUsageError
	}
	return ExitSuccess
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "dgcreview",
		Short:         "Review service for drinking game card edits",
		Long:          "dgcreview accepts proposed edits to deck cards, stores them and shows maintainers a diff against the current card.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.cardsFile, "cards-file", "", "cards collection file (overrides CARDS_FILE)")
	pf.StringVar(&flags.reviewsFile, "reviews-file", "", "reviews collection file (overrides REVIEWS_FILE)")
	pf.StringVar(&flags.storage, "storage", "", "storage backend: file, postgres or minio (overrides STORAGE_BACKEND)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newReviewsCmd(flags))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print dgcreview version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dgcreview version %s\n", version)
		},
	})
	return root
}

func (f *globalFlags) config() config.Config {
	cfg := config.Load()
	if f.cardsFile != "" {
		cfg.CardsFile = f.cardsFile
	}
	if f.reviewsFile != "" {
		cfg.ReviewsFile = f.reviewsFile
	}
	if f.storage != "" {
		cfg.StorageBackend = f.storage
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg
}

func newLogger(cmd *cobra.Command, cfg config.Config) logging.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
}
