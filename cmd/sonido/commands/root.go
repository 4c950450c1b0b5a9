package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/logging"
)

var (
	// Global flags
	logLevel string
	noColor  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sonido",
	Short: "Log-mel audio features, PCA reduction and libsvm export",
	Long: `sonido turns short recordings into fixed-size log-mel features and
prepares them for classification.

Typical pipeline:
  sonido partition data --source recordings
  sonido extract data/train_data/*.wav
  ls data/train_data/*.feat > feats.txt
  sonido basis feats.txt
  sonido reduce feats.txt feats 10
  ls data/train_data/*.reduced > train.txt
  sonido prep-svm train.txt
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Command returns the root cobra command for mounting into a parent CLI.
func Command() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and runs it until
// completion or interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(basisCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(prepSVMCmd)
	rootCmd.AddCommand(partitionCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	// stdout is reserved for the paths of written artifacts
	colors := !noColor && isatty.IsTerminal(os.Stderr.Fd())
	logging.SetGlobalLogger(logging.NewLoggerTo(os.Stderr, os.Stderr, colors))
	logging.SetLevel(level)
	return nil
}

// printPath reports a written artifact on stdout, one per line, so the output
// can be piped into a listing file.
func printPath(w io.Writer, path string) {
	fmt.Fprintln(w, path)
}
