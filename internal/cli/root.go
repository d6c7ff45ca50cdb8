package cli

import (
	"fmt"
	"os"
	"time"

	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/startup"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Options are the settings shared by every subcommand.
type Options struct {
	Output       string
	DjvudumpPath string
	DjvutxtPath  string
	Timeout      time.Duration
	Verbose      bool

	// Runner replaces process execution, for tests.
	Runner media.Runner
	// IsTerminal reports whether stdout is a terminal.
	IsTerminal func() bool
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCommand builds the djvuinfo command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{IsTerminal: stdoutIsTerminal}
	return newRootCommand(opts)
}

func newRootCommand(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "djvuinfo",
		Short: "Inspect DjVu documents",
		Long: `djvuinfo reads DjVu documents with djvudump and djvutxt and prints
their page count, page dimensions, OCR text or combined XML.

Output is text on a terminal and JSON otherwise; use --output to choose.

Exit Codes:
  0  - Success
  1  - Error (unreadable file, extraction failure, page out of range)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Verbose {
				logging.SetLevel(logging.LevelDebug)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
			if !cmd.Flags().Changed("output") {
				opts.Output = formatJSON
				if opts.IsTerminal != nil && opts.IsTerminal() {
					opts.Output = formatText
				}
			}
			return validateFormat(opts.Output)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.Output, "output", "o", formatText, "Output format: json, yaml or text")
	flags.StringVar(&opts.DjvudumpPath, "djvudump", envOr("DJVUDUMP_PATH", "djvudump"), "Path to djvudump")
	flags.StringVar(&opts.DjvutxtPath, "djvutxt", envOr("DJVUTXT_PATH", "djvutxt"), "Path to djvutxt")
	flags.DurationVar(&opts.Timeout, "timeout", time.Minute, "Timeout for each tool run")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log tool runs and cache activity to stderr")

	root.AddCommand(
		newPagesCommand(opts),
		newPageCommand(opts),
		newTextCommand(opts),
		newSizeCommand(opts),
		newXMLCommand(opts),
		newVersionCommand(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "djvuinfo %s (%s, %s) %s/%s\n",
				info.Version, info.Commit, info.BuildTime, info.OS, info.Arch)
			return err
		},
	}
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
