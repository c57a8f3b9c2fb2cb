package supabase

import (
	"errors"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"solo-drops-backend/internal/config"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}

// Session is the subset of a Supabase Auth session the admin console needs.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Email        string
}

// SignIn performs an email/password sign-in against Supabase Auth.
func (c *Client) SignIn(email, password string) (*Session, error) {
	token, err := c.Supabase.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	return &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		Email:        token.User.Email,
	}, nil
}

// SignOut revokes the session that issued accessToken.
func (c *Client) SignOut(accessToken string) error {
	if err := c.Supabase.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
