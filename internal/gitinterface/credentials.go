// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	sshagent "github.com/xanzy/ssh-agent"
)

// Credential is the result of cooperative credential acquisition for a remote
// URL. Either FromSSHAgent is set, meaning the transport should rely on the
// user's SSH agent, or Username/Password carry helper-derived values.
type Credential struct {
	Username     string
	Password     string
	FromSSHAgent bool
}

// CredentialProvider resolves credentials for a remote URL. The username hint,
// if any, comes from the URL itself.
type CredentialProvider interface {
	Resolve(url, usernameHint string) (*Credential, error)
}

// SystemCredentialProvider acquires credentials cooperatively: it tries an
// agent-based SSH key, then the cached Git credential helper, then a small
// list of candidate usernames. The SSH agent is probed at most once per
// session to avoid loops.
type SystemCredentialProvider struct {
	agentProbed    bool
	agentAvailable bool
}

func NewSystemCredentialProvider() *SystemCredentialProvider {
	return &SystemCredentialProvider{}
}

func (p *SystemCredentialProvider) Resolve(url, usernameHint string) (*Credential, error) {
	if isSSHURL(url) {
		if !p.agentProbed {
			p.agentProbed = true
			p.agentAvailable = sshagent.Available()
			slog.Debug(fmt.Sprintf("Probed SSH agent, available: %v", p.agentAvailable))
		}

		if p.agentAvailable {
			return &Credential{Username: pickUsername(usernameHint, nil), FromSSHAgent: true}, nil
		}
	}

	helperCred, err := credentialHelperFill(url)
	if err == nil && helperCred != nil {
		if helperCred.Username == "" {
			helperCred.Username = pickUsername(usernameHint, helperCred)
		}
		return helperCred, nil
	}

	if isSSHURL(url) {
		// No agent and no helper: leave authentication to the transport with
		// a candidate username.
		return &Credential{Username: pickUsername(usernameHint, nil), FromSSHAgent: true}, nil
	}

	return nil, nil
}

// pickUsername returns the first usable candidate username: the URL's hint,
// the conventional `git` user, the environment's USER, then any
// helper-suggested name.
func pickUsername(hint string, helperCred *Credential) string {
	candidates := []string{hint, "git", os.Getenv("USER")}
	if helperCred != nil {
		candidates = append(candidates, helperCred.Username)
	}

	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}

	return "git"
}

// credentialHelperFill asks the configured Git credential helper for
// credentials matching the URL. Interactive prompting is disabled; a helper
// miss returns nil without error.
func credentialHelperFill(url string) (*Credential, error) {
	cmd := exec.Command(binary, "credential", "fill")
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=true")
	cmd.Stdin = bytes.NewBufferString(fmt.Sprintf("url=%s\n\n", url))

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &bytes.Buffer{}

	if err := cmd.Run(); err != nil {
		return nil, nil //nolint:nilerr // a helper miss is not an error
	}

	cred := &Credential{}
	for _, line := range strings.Split(stdOut.String(), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "username":
			cred.Username = value
		case "password":
			cred.Password = value
		}
	}

	if cred.Password == "" {
		return nil, nil
	}

	return cred, nil
}

// credentialEnv resolves credentials for the remote and returns environment
// variables that let the spawned git process authenticate non-interactively.
// Local path remotes need no credentials and return nil.
func (r *Repository) credentialEnv(remoteName string) []string {
	url, err := r.GetRemoteURL(remoteName)
	if err != nil || isLocalURL(url) {
		return nil
	}

	if r.credentials == nil {
		return nil
	}

	cred, err := r.credentials.Resolve(url, usernameFromURL(url))
	if err != nil || cred == nil || cred.FromSSHAgent || cred.Password == "" {
		// Agent-backed SSH authentication is handled by git/ssh directly.
		return nil
	}

	// Git reads additional configuration from the environment; route the
	// helper-derived credentials through an inline helper so they never touch
	// the command line.
	return []string{
		"GIT_CONFIG_COUNT=1",
		"GIT_CONFIG_KEY_0=credential.helper",
		`GIT_CONFIG_VALUE_0=!f() { echo "username=$GIT_RSL_CRED_USERNAME"; echo "password=$GIT_RSL_CRED_PASSWORD"; }; f`,
		fmt.Sprintf("GIT_RSL_CRED_USERNAME=%s", cred.Username),
		fmt.Sprintf("GIT_RSL_CRED_PASSWORD=%s", cred.Password),
		"GIT_TERMINAL_PROMPT=0",
	}
}

func isSSHURL(url string) bool {
	if strings.HasPrefix(url, "ssh://") {
		return true
	}
	// scp-like syntax: user@host:path
	return !strings.Contains(url, "://") && strings.Contains(url, "@") && strings.Contains(url, ":")
}

func isLocalURL(url string) bool {
	if strings.HasPrefix(url, "file://") {
		return true
	}
	return !strings.Contains(url, "://") && !isSSHURL(url)
}

func usernameFromURL(url string) string {
	trimmed := url
	if index := strings.Index(trimmed, "://"); index != -1 {
		trimmed = trimmed[index+3:]
	}

	at := strings.Index(trimmed, "@")
	if at == -1 {
		return ""
	}

	user := trimmed[:at]
	if colon := strings.Index(user, ":"); colon != -1 {
		user = user[:colon]
	}

	return user
}
