package source

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/sitetree/internal/config"
	ferrors "git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// authMethod maps configured credentials onto a go-git transport auth.
// A nil method means anonymous access.
func authMethod(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth.IsZero() {
		return nil, nil
	}
	switch auth.Type {
	case config.AuthTypeToken:
		if auth.Token == "" {
			return nil, ferrors.ConfigError("token authentication requires a token").Build()
		}
		// GitHub and GitLab accept any non-empty username with a token.
		return &http.BasicAuth{Username: "token", Password: auth.Token}, nil
	case config.AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return nil, ferrors.ConfigError("basic authentication requires username and password").Build()
		}
		return &http.BasicAuth{Username: auth.Username, Password: auth.Password}, nil
	case config.AuthTypeSSH:
		keys, err := ssh.NewPublicKeysFromFile("git", auth.KeyPath, auth.Password)
		if err != nil {
			return nil, ferrors.ConfigError(fmt.Sprintf("load ssh key from %s", auth.KeyPath)).
				WithCause(err).
				WithContext("key_path", auth.KeyPath).
				Build()
		}
		return keys, nil
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported authentication type: %s", auth.Type)).Build()
	}
}
