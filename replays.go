// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import "context"

// Replay catalog paging. Pages are 0-indexed.
const (
	ReplayPages    = 5
	ReplayPageSize = 127
	MaxReplays     = ReplayPages * ReplayPageSize
)

// Replays fetches the most recent replay pages one after another, in page
// order. The first failing page aborts the whole retrieval: no partial
// result is returned and later pages are never requested.
func (c *Client) Replays(ctx context.Context) ([]Replay, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}

	replays := make([]Replay, 0, MaxReplays)
	for i := 0; i < ReplayPages; i++ {
		c.logger.Debug("grabbing replays", "page", i)
		page, err := c.ReplayPage(ctx, token, i, ReplayPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) > ReplayPageSize {
			page = page[:ReplayPageSize]
		}
		replays = append(replays, page...)
	}
	return replays, nil
}
