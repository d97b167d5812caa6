package pocketbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Record is one row of a collection. The store is schema-lite, so records
// are generic maps; typed layers decode them into their own structs.
type Record map[string]any

// ID returns the record's store-assigned identifier.
func (r Record) ID() string {
	return r.GetString("id")
}

// GetString returns the named field as a string, or "" when absent or not
// a string.
func (r Record) GetString(key string) string {
	v, _ := r[key].(string)
	return v
}

// GetBool returns the named field as a bool, false when absent.
func (r Record) GetBool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// GetFloat returns the named field as a float64, 0 when absent. JSON numbers
// always decode to float64.
func (r Record) GetFloat(key string) float64 {
	v, _ := r[key].(float64)
	return v
}

// GetTime parses the named field as a store timestamp. The store emits both
// "2006-01-02 15:04:05.000Z" and RFC 3339 depending on the field type.
func (r Record) GetTime(key string) time.Time {
	s := r.GetString(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05.000Z", time.RFC3339, "2006-01-02 15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RecordList is one page of a collection listing.
type RecordList struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// ListOptions narrow a collection listing. Sort uses the store's syntax
// (leading - for descending); Filter uses its filter expression language.
type ListOptions struct {
	Page    int
	PerPage int
	Sort    string
	Filter  string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	return q
}

func collectionPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

// CreateRecord inserts a record and returns it with its assigned id.
func (c *Client) CreateRecord(ctx context.Context, collection string, data map[string]any) (Record, error) {
	resp, err := c.request(ctx, http.MethodPost, collectionPath(collection), nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create record in %q: %w", collection, err)
	}

	var record Record
	if err := parseResponse(resp, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord fetches a single record by id.
func (c *Client) GetRecord(ctx context.Context, collection, id string) (Record, error) {
	resp, err := c.request(ctx, http.MethodGet, collectionPath(collection)+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record %s from %q: %w", id, collection, err)
	}

	var record Record
	if err := parseResponse(resp, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord patches a record by id and returns the updated row.
func (c *Client) UpdateRecord(ctx context.Context, collection, id string, data map[string]any) (Record, error) {
	resp, err := c.request(ctx, http.MethodPatch, collectionPath(collection)+"/"+url.PathEscape(id), nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s in %q: %w", id, collection, err)
	}

	var record Record
	if err := parseResponse(resp, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record by id.
func (c *Client) DeleteRecord(ctx context.Context, collection, id string) error {
	resp, err := c.request(ctx, http.MethodDelete, collectionPath(collection)+"/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete record %s from %q: %w", id, collection, err)
	}
	return parseResponse(resp, nil)
}

// ListRecords fetches one page of a collection.
func (c *Client) ListRecords(ctx context.Context, collection string, opts ListOptions) (*RecordList, error) {
	resp, err := c.request(ctx, http.MethodGet, collectionPath(collection), opts.query(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", collection, err)
	}

	var list RecordList
	if err := parseResponse(resp, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// fullListPageSize is the page size used when walking a whole collection.
const fullListPageSize = 200

// FullList walks every page of a collection and returns all records. Sort
// and Filter from opts apply; Page and PerPage are owned by the walk.
func (c *Client) FullList(ctx context.Context, collection string, opts ListOptions) ([]Record, error) {
	var all []Record
	page := 1
	for {
		list, err := c.ListRecords(ctx, collection, ListOptions{
			Page:    page,
			PerPage: fullListPageSize,
			Sort:    opts.Sort,
			Filter:  opts.Filter,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, list.Items...)
		if page >= list.TotalPages || len(list.Items) == 0 {
			return all, nil
		}
		page++
	}
}
