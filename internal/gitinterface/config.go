// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"fmt"
	"io"
	"strings"
)

// GetGitConfig reads the applicable Git configuration for the repository and
// returns it as a map. Keys are lowered the way Git reports them.
func (r *Repository) GetGitConfig() (map[string]string, error) {
	stdOut, stdErr, err := r.executor("config", "--list", "-z").execute()
	if err != nil {
		stdErrContents, newErr := io.ReadAll(stdErr)
		if newErr != nil {
			return nil, fmt.Errorf("unable to read stderr contents: %w; original err: %w", newErr, err)
		}
		return nil, fmt.Errorf("unable to read Git config: %w: %s", err, string(stdErrContents))
	}

	stdOutContents, err := io.ReadAll(stdOut)
	if err != nil {
		return nil, fmt.Errorf("unable to read Git config: %w", err)
	}

	config := map[string]string{}
	for _, item := range strings.Split(string(stdOutContents), "\x00") {
		if item == "" {
			continue
		}

		key, value, _ := strings.Cut(item, "\n")
		config[strings.ToLower(key)] = value
	}

	return config, nil
}

// SetGitConfig sets the specified key to value in the repository's local Git
// configuration.
func (r *Repository) SetGitConfig(key, value string) error {
	_, err := r.executor("config", "--local", key, value).executeString()
	if err != nil {
		return fmt.Errorf("unable to set Git config '%s': %w", key, err)
	}

	return nil
}
