// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package initialize

import (
	"github.com/polysync/git-rsl/gitrsl"
	"github.com/spf13/cobra"
)

type options struct{}

func (o *options) AddFlags(_ *cobra.Command) {}

func (o *options) Run(cmd *cobra.Command, args []string) error {
	repo, err := gitrsl.LoadRepository(".")
	if err != nil {
		return err
	}

	return repo.InitializeRSL(cmd.Context(), args[0])
}

func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "init <remote>",
		Short: "Initialize the Reference State Log for the repository and remote",
		Args:  cobra.ExactArgs(1),
		RunE:  o.Run,
	}
	o.AddFlags(cmd)

	return cmd
}
