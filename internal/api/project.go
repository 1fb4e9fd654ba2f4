package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"tyredash/internal/models"
)

// Project endpoints
const (
	myProjectsPath      = "/api/my-projects"
	projectHistoryPath  = "/api/project-history"
	projectNamePathTmpl = "/api/projects/%s/name"
)

// RenameResponse is the body returned by the project name endpoint
type RenameResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the body does not explicitly declare failure
func (r *RenameResponse) Succeeded() bool {
	return r != nil && (r.Success == nil || *r.Success)
}

// ListMyProjects retrieves the engineer's projects from the dedicated endpoint
func (c *Client) ListMyProjects(ctx context.Context) ([]models.Project, error) {
	var response struct {
		Projects []models.Project `json:"projects"`
	}
	if err := c.getJSON(ctx, myProjectsPath, &response); err != nil {
		return nil, err
	}
	return response.Projects, nil
}

// ListProjectHistory retrieves projects from the engineer history view. The
// endpoint returns either a bare array or an object with a projects field.
func (c *Client) ListProjectHistory(ctx context.Context) ([]models.Project, error) {
	data, _, err := c.do(ctx, http.MethodGet, projectHistoryPath, nil)
	if err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var projects []models.Project
		if err := decode(trimmed, &projects); err != nil {
			return nil, err
		}
		return projects, nil
	}

	var response struct {
		Projects []models.Project `json:"projects"`
	}
	if err := decode(data, &response); err != nil {
		return nil, err
	}
	return response.Projects, nil
}

// ListProjects returns the engineer's projects, falling back to the history
// endpoint when the dedicated one fails or is empty. Failures of both read as
// no projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, _ := FirstOf(ctx,
		c.projectSource("my-projects", c.ListMyProjects),
		c.projectSource("project-history", c.ListProjectHistory),
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) projectSource(name string, fetch func(context.Context) ([]models.Project, error)) Resolver[[]models.Project] {
	return func(ctx context.Context) ([]models.Project, bool) {
		projects, err := fetch(ctx)
		if err != nil {
			c.logger.Debug("project source unavailable", zap.String("source", name), zap.Error(err))
			return nil, false
		}
		return projects, len(projects) > 0
	}
}

// UpdateProjectName sends the new name with the given HTTP method
func (c *Client) UpdateProjectName(ctx context.Context, method, projectID, name string) (*RenameResponse, error) {
	path := fmt.Sprintf(projectNamePathTmpl, url.PathEscape(projectID))
	body := map[string]string{"project_name": name}

	data, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: empty rename result", ErrMalformedResponse)
	}

	var response RenameResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &response, nil
}
