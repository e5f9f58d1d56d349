package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/hackmate/client/internal/shared/types"
)

// ListMyTeams returns the teams the authenticated user belongs to.
func (c *Client) ListMyTeams(ctx context.Context) ([]types.Team, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var teams []types.Team
	_, err = c.execute(func() (*resty.Response, error) {
		return req.SetResult(&teams).Get("/api/teams/my")
	})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// GetTeam fetches a single team by identifier.
func (c *Client) GetTeam(ctx context.Context, teamID string) (*types.Team, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var team types.Team
	_, err = c.execute(func() (*resty.Response, error) {
		return req.SetResult(&team).Get("/api/teams/" + teamID)
	})
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", teamID, err)
	}
	return &team, nil
}

// DiscoverTeams returns open teams matched to the user's profile.
func (c *Client) DiscoverTeams(ctx context.Context) ([]types.Team, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var teams []types.Team
	_, err = c.execute(func() (*resty.Response, error) {
		return req.SetResult(&teams).Get("/api/matching/teams/discover")
	})
	if err != nil {
		return nil, fmt.Errorf("discover teams: %w", err)
	}
	return teams, nil
}
