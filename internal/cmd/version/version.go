// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package version //nolint:revive

import (
	"fmt"

	"github.com/polysync/git-rsl/internal/version"
	"github.com/spf13/cobra"
)

type options struct{}

func (o *options) AddFlags(_ *cobra.Command) {}

func (o *options) Run(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "git-rsl version %s\n", version.GetVersion())
	return nil
}

func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the version of git-rsl",
		Args:  cobra.NoArgs,
		RunE:  o.Run,
	}
	o.AddFlags(cmd)

	return cmd
}
