package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/hackmate/client/internal/shared/types"
)

// RecentTeamMessages returns the most recent chat history for a team,
// used to seed the view before the realtime subscription starts delivering.
func (c *Client) RecentTeamMessages(ctx context.Context, teamID string) ([]types.ChatMessage, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var messages []types.ChatMessage
	_, err = c.execute(func() (*resty.Response, error) {
		return req.SetResult(&messages).Get("/api/chat/teams/" + teamID + "/messages/recent")
	})
	if err != nil {
		return nil, fmt.Errorf("recent messages for %s: %w", teamID, err)
	}
	return messages, nil
}

// TeamMessages returns a page of persisted chat history, oldest first within
// the page.
func (c *Client) TeamMessages(ctx context.Context, teamID string, page, size int) ([]types.ChatMessage, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var messages []types.ChatMessage
	_, err = c.execute(func() (*resty.Response, error) {
		return req.
			SetResult(&messages).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("size", strconv.Itoa(size)).
			Get("/api/chat/teams/" + teamID + "/messages")
	})
	if err != nil {
		return nil, fmt.Errorf("messages for %s: %w", teamID, err)
	}
	return messages, nil
}

// SearchTeamMessages searches a team's persisted history by content.
func (c *Client) SearchTeamMessages(ctx context.Context, teamID, query string) ([]types.ChatMessage, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var messages []types.ChatMessage
	_, err = c.execute(func() (*resty.Response, error) {
		return req.
			SetResult(&messages).
			SetQueryParam("query", query).
			Get("/api/chat/teams/" + teamID + "/messages/search")
	})
	if err != nil {
		return nil, fmt.Errorf("search messages for %s: %w", teamID, err)
	}
	return messages, nil
}
