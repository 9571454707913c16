// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package securepush

import (
	"github.com/polysync/git-rsl/gitrsl"
	"github.com/spf13/cobra"
)

type options struct {
	retryLimit int
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(
		&o.retryLimit,
		"retry-limit",
		gitrsl.DefaultRetryLimit,
		"maximum attempts when racing other pushers",
	)
}

func (o *options) Run(cmd *cobra.Command, args []string) error {
	repo, err := gitrsl.LoadRepository(".", gitrsl.WithRetryLimit(o.retryLimit))
	if err != nil {
		return err
	}

	return repo.SecurePush(cmd.Context(), args[0], args[1:]...)
}

func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "secure-push <remote> <branch>...",
		Short: "Record the branches in the RSL and push them to the remote",
		Args:  cobra.MinimumNArgs(2),
		RunE:  o.Run,
	}
	o.AddFlags(cmd)

	return cmd
}
