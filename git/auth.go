package git

import (
	"encoding/base64"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	platformerrors "github.com/jmgilman/go/errors"
)

// Auth supplies credentials to a git subprocess through its environment.
// A nil Auth leaves git's own credential configuration in charge.
type Auth interface {
	// Environment returns the variables to add to the git invocation.
	Environment() map[string]string
}

// SSHKeyOption configures SSH key authentication.
type SSHKeyOption func(*sshKeyOptions)

type sshKeyOptions struct {
	knownHosts string
	noStrict   bool
}

// WithKnownHostsFile makes ssh verify the remote host against path only.
func WithKnownHostsFile(path string) SSHKeyOption {
	return func(opts *sshKeyOptions) {
		opts.knownHosts = path
	}
}

// WithInsecureHostKey disables host key verification. Only meant for tests
// against throwaway servers.
func WithInsecureHostKey() SSHKeyOption {
	return func(opts *sshKeyOptions) {
		opts.noStrict = true
	}
}

type sshKeyAuth struct {
	user    string
	keyPath string
	options sshKeyOptions
}

// SSHKeyFile creates SSH authentication from a private key file. The key is
// parsed up front so a bad path or format fails before any subprocess is
// started. Passphrase protected keys are rejected; load those into an
// ssh-agent and pass a nil Auth instead.
//
// Parameters:
//   - user: SSH username (typically "git" for Git hosting services)
//   - keyPath: path to PEM-encoded private key file
//   - opts: optional host key settings
//
// Example:
//
//	auth, err := git.SSHKeyFile("git", "/home/me/.ssh/id_ed25519")
//	if err != nil {
//	    return err
//	}
//	_, err = repo.Fetch(ctx, git.FetchOptions{Auth: auth})
func SSHKeyFile(user string, keyPath string, opts ...SSHKeyOption) (Auth, error) {
	options := sshKeyOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if _, err := ssh.NewPublicKeysFromFile(user, keyPath, ""); err != nil {
		return nil, platformerrors.WrapWithContext(err, platformerrors.CodeInvalidInput, "failed to load SSH key", map[string]interface{}{
			"path": keyPath,
		})
	}
	return &sshKeyAuth{user: user, keyPath: keyPath, options: options}, nil
}

func (a *sshKeyAuth) Environment() map[string]string {
	args := []string{"ssh", "-i", shellQuote(a.keyPath), "-o", "IdentitiesOnly=yes", "-o", "BatchMode=yes"}
	if a.user != "" {
		args = append(args, "-l", shellQuote(a.user))
	}
	if a.options.knownHosts != "" {
		args = append(args, "-o", shellQuote("UserKnownHostsFile="+a.options.knownHosts))
	}
	if a.options.noStrict {
		args = append(args, "-o", "StrictHostKeyChecking=no")
	}
	return map[string]string{"GIT_SSH_COMMAND": strings.Join(args, " ")}
}

// shellQuote quotes s for the shell git runs GIT_SSH_COMMAND through.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type basicAuth struct {
	username string
	password string
}

// BasicAuth creates HTTP basic authentication.
// This is commonly used with personal access tokens for HTTPS Git operations.
// The credentials travel as an extra HTTP header set through GIT_CONFIG_*
// variables and never appear in the argument list.
//
// Example:
//
//	auth := git.BasicAuth("myuser", "ghp_mytoken")
func BasicAuth(username, password string) Auth {
	return &basicAuth{username: username, password: password}
}

func (a *basicAuth) Environment() map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(a.username + ":" + a.password))
	return map[string]string{
		"GIT_CONFIG_COUNT":   "1",
		"GIT_CONFIG_KEY_0":   "http.extraHeader",
		"GIT_CONFIG_VALUE_0": "Authorization: Basic " + token,
	}
}

// EmptyAuth returns nil authentication for public repositories.
//
// This function exists for explicit documentation purposes - you can
// also just pass nil as the Auth field in options structs.
func EmptyAuth() Auth {
	return nil
}

func authEnv(auth Auth) map[string]string {
	if auth == nil {
		return nil
	}
	return auth.Environment()
}
