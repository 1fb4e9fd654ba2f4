package api

import (
	"context"

	"tyredash/internal/models"
)

const myActivityPath = "/api/my-activity"

// ListActivity retrieves the engineer's activity feed, newest first as sent
func (c *Client) ListActivity(ctx context.Context) ([]models.Activity, error) {
	var response struct {
		Activities []models.Activity `json:"activities"`
	}
	if err := c.getJSON(ctx, myActivityPath, &response); err != nil {
		return nil, err
	}
	return response.Activities, nil
}
