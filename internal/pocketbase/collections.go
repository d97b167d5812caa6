package pocketbase

import (
	"context"
	"fmt"
	"net/http"
)

// CollectionField is one typed field of a collection schema.
type CollectionField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

// Collection describes a collection for the admin schema API.
type Collection struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Schema []CollectionField `json:"schema"`
}

// CreateCollection defines a new collection through the admin API.
// The store rejects duplicates with a 400; callers decide whether that is
// fatal (the bootstrap treats it as a soft warning).
func (c *Client) CreateCollection(ctx context.Context, collection Collection) error {
	resp, err := c.request(ctx, http.MethodPost, "/api/collections", nil, collection)
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", collection.Name, err)
	}
	return parseResponse(resp, nil)
}
