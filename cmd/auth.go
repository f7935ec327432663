package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spindleapp/spindle/internal/server"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 3 * time.Minute

// AuthLogin runs the OAuth2 PKCE flow: starts the callback server, opens
// the browser, and caches the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: spotify client_id missing from config", shared.ErrMissingCredentials)
	}

	state := shared.GenerateID()
	verifier := oauth2.GenerateVerifier()

	handler := server.NewOAuthHandler(r.spotify.OAuthConfig(), state, verifier)
	callback, err := server.NewCallbackServer(r.config.Credentials.Spotify.RedirectURI, handler, r.logger)
	if err != nil {
		return fmt.Errorf("%w: bad redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	serverErrs := callback.Start()
	defer callback.Stop()

	authURL := r.spotify.AuthURL(state, verifier)
	r.writePlain("Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("could not open browser: %v", err)
		r.writePlain("Visit this URL to authorize:\n%s\n", authURL)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
		}
		r.spotify.SetToken(ctx, result.Token)
		path, err := r.tokenPath()
		if err != nil {
			return err
		}
		if err := services.SaveToken(path, result.Token); err != nil {
			r.logger.Warnf("failed to cache token: %v", err)
		} else {
			r.logger.Infof("token saved to %v", path)
		}
		return r.writePlain("✓ Authentication successful\n")
	case err := <-serverErrs:
		return fmt.Errorf("%w: callback server: %v", shared.ErrAuthFailed, err)
	case <-time.After(authTimeout):
		return fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthStatus reports the authenticated user, if any.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	user, err := r.catalog.CurrentUser(ctx)
	if err != nil {
		return err
	}
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return r.writePlain("✓ Authenticated as %s\n", name)
}
