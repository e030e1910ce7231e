package client

import (
	"context"
)

// ProjectsClient wraps the /projects/* surface: saving the live server-side
// network set as a `.cnnd` document under a name, and loading a previously
// saved one back into the live set. Neither endpoint round-trips the
// document itself — Save/Load affect the server's live networks, which a
// subsequent NetworksClient.View reads back.
type ProjectsClient struct {
	client *Client
}

// projectNameRequest is the body of both POST /projects/save and
// POST /projects/load.
type projectNameRequest struct {
	Name string `json:"name"`
}

// Save serializes every live network into the `.cnnd` JSON tree and
// persists it under name.
func (p *ProjectsClient) Save(ctx context.Context, name string) (*MutationResponse, error) {
	var resp MutationResponse
	if err := p.client.post(ctx, "/projects/save", projectNameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Load replaces the server's live network set with the one stored under
// name.
func (p *ProjectsClient) Load(ctx context.Context, name string) (*MutationResponse, error) {
	var resp MutationResponse
	if err := p.client.post(ctx, "/projects/load", projectNameRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
