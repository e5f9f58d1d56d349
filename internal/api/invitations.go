package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/hackmate/client/internal/shared/types"
)

// ListInvitations returns the pending invitations addressed to the user.
func (c *Client) ListInvitations(ctx context.Context) ([]types.Invitation, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var invitations []types.Invitation
	_, err = c.execute(func() (*resty.Response, error) {
		return req.SetResult(&invitations).Get("/api/invitations/received")
	})
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// AcceptInvitation accepts a team invitation. Membership takes effect
// server-side; the caller then joins the team chat through the realtime
// layer.
func (c *Client) AcceptInvitation(ctx context.Context, invitationID string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	_, err = c.execute(func() (*resty.Response, error) {
		return req.Post("/api/invitations/" + invitationID + "/accept")
	})
	if err != nil {
		return fmt.Errorf("accept invitation %s: %w", invitationID, err)
	}
	return nil
}

// DeclineInvitation declines a team invitation.
func (c *Client) DeclineInvitation(ctx context.Context, invitationID string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	_, err = c.execute(func() (*resty.Response, error) {
		return req.Post("/api/invitations/" + invitationID + "/decline")
	})
	if err != nil {
		return fmt.Errorf("decline invitation %s: %w", invitationID, err)
	}
	return nil
}
