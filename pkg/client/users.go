package client

import (
	"context"
	"fmt"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, r Registration) error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return c.Post(ctx, "/users/register", r, nil)
}

// Login authenticates and stores the session cookies. It returns the
// user's profile as sent by the server.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var user User
	body := map[string]string{"email": email, "password": password}
	if err := c.Post(ctx, "/users/login", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "/users/logout", nil, nil)
}

// Profile returns the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes profile fields.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) error {
	if err := c.Put(ctx, "/users/profile/update", u, nil); err != nil {
		return err
	}
	c.InvalidateCache(ctx, "/users/profile")
	return nil
}

// ChangePassword sets a new password.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password cannot be empty")
	}
	return c.Put(ctx, "/users/profile/change_password", map[string]string{"new_password": newPassword}, nil)
}
