// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/polysync/git-rsl/internal/cmd/root"
	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/rsl"
)

func main() {
	rootCmd := root.New()
	if err := rootCmd.Execute(); err != nil {
		if isReadOrParseError(err) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// isReadOrParseError distinguishes errors reading or decoding repository state
// from everything else; the two classes map to different exit codes.
func isReadOrParseError(err error) bool {
	if errors.Is(err, rsl.ErrCorruptNonce) || errors.Is(err, rsl.ErrNoNonce) {
		return true
	}
	if errors.Is(err, gitinterface.ErrInvalidHashEncoding) || errors.Is(err, gitinterface.ErrInvalidHashLength) {
		return true
	}

	var jsonErr *json.SyntaxError
	return errors.As(err, &jsonErr)
}
