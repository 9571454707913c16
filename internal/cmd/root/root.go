// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package root

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/polysync/git-rsl/internal/cmd/initialize"
	"github.com/polysync/git-rsl/internal/cmd/securefetch"
	"github.com/polysync/git-rsl/internal/cmd/securepush"
	"github.com/polysync/git-rsl/internal/cmd/version"
	"github.com/spf13/cobra"
)

type options struct {
	verbose bool
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(
		&o.verbose,
		"verbose",
		false,
		"enable verbose logging",
	)
}

func (o *options) PreRunE(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	// Interactive sessions get terse output; timestamps are only useful when
	// the output lands in a log.
	handlerOptions := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handlerOptions.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, handlerOptions)))
	return nil
}

func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "git-rsl",
		Short: "Protect Git branches against history rewriting using a Reference State Log",
		Long: `git-rsl maintains a signed, append-only audit branch (the Reference State
Log) on the remote that records every authorized push. Secure pushes append
signed entries to the log; secure fetches verify that the remote's branch
state matches the log before accepting it.`,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRunE: o.PreRunE,
	}
	o.AddFlags(cmd)

	cmd.AddCommand(initialize.New())
	cmd.AddCommand(securepush.New())
	cmd.AddCommand(securefetch.New())
	cmd.AddCommand(version.New())

	return cmd
}
