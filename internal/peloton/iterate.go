package peloton

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrDone is returned by Iterator.Next when the remote collection is exhausted.
var ErrDone = errors.New("no more records")

// pageEnvelope is the platform's common paginated response shape.
// Some endpoints return an opaque next cursor, others only a page count.
type pageEnvelope struct {
	Data      []json.RawMessage `json:"data"`
	Page      int               `json:"page"`
	PageCount int               `json:"page_count"`
	Total     int               `json:"total"`
	Next      string            `json:"next"`
	ShowNext  bool              `json:"show_next"`
}

// Iterator walks a paginated collection one record at a time; consumers
// never see pagination. It is finite and not restartable: a fresh Iterate
// call re-issues requests from page 0.
type Iterator struct {
	c        *Client
	path     string
	params   url.Values
	pageSize int
	maxPages int

	page    int
	fetched int // pages fetched so far
	cursor  string
	buf     []json.RawMessage
	idx     int
	done    bool
}

// Iterate starts a paginated walk of path. params may be nil; pageSize
// bounds each request; maxPages of 0 means no cap.
func (c *Client) Iterate(path string, params url.Values, pageSize, maxPages int) *Iterator {
	cloned := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			cloned.Add(k, v)
		}
	}
	return &Iterator{
		c:        c,
		path:     path,
		params:   cloned,
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// Next returns the next record, fetching pages as needed.
// Returns ErrDone once the collection is exhausted.
func (it *Iterator) Next(ctx context.Context) (json.RawMessage, error) {
	for it.idx >= len(it.buf) {
		if it.done {
			return nil, ErrDone
		}
		if err := it.fetchPage(ctx); err != nil {
			return nil, err
		}
	}

	rec := it.buf[it.idx]
	it.idx++
	return rec, nil
}

func (it *Iterator) fetchPage(ctx context.Context) error {
	if it.maxPages > 0 && it.fetched >= it.maxPages {
		it.done = true
		return nil
	}

	params := url.Values{}
	for k, vs := range it.params {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("limit", strconv.Itoa(it.pageSize))
	if it.cursor != "" {
		params.Set("next", it.cursor)
	} else {
		params.Set("page", strconv.Itoa(it.page))
	}

	raw, err := it.c.Get(ctx, it.path, params)
	if err != nil {
		return err
	}

	var env pageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding page %d of %s: %w", it.page, it.path, err)
	}

	it.buf = env.Data
	it.idx = 0
	it.fetched++

	switch {
	case len(env.Data) == 0:
		it.done = true
	case env.Next != "":
		it.cursor = env.Next
		if !env.ShowNext {
			it.done = true
		}
	default:
		it.page++
		if env.PageCount > 0 && it.page >= env.PageCount {
			it.done = true
		}
	}

	return nil
}
