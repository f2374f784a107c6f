package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
)

// Data performs r and decodes the response, unwrapping a {"data": ...} envelope when present.
func (c *Client) Data(ctx context.Context, r Request, out any) error {
	var raw json.RawMessage
	if err := c.Do(ctx, r, &raw); err != nil {
		return err
	}
	if err := DecodeData(raw, out); err != nil {
		return apierr.Unexpected(fmt.Errorf("decode %s: %w", r.Path, err), c.dev)
	}
	return nil
}

func DecodeData(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if out == nil || len(raw) == 0 {
		return nil
	}
	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err == nil {
			if inner, ok := env["data"]; ok && len(bytes.TrimSpace(inner)) > 0 && string(bytes.TrimSpace(inner)) != "null" {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(raw, out)
}

// List performs r and decodes a list response: a bare array, a paginated
// {results, count, next, previous} object, or either of those under "data".
func List[T any](ctx context.Context, c *Client, r Request) (domain.Page[T], error) {
	var raw json.RawMessage
	if err := c.Do(ctx, r, &raw); err != nil {
		return domain.Page[T]{}, err
	}
	page, err := DecodeList[T](raw)
	if err != nil {
		return domain.Page[T]{}, apierr.Unexpected(fmt.Errorf("decode %s: %w", r.Path, err), c.dev)
	}
	return page, nil
}

func DecodeList[T any](raw json.RawMessage) (domain.Page[T], error) {
	raw = bytes.TrimSpace(raw)
	var page domain.Page[T]
	if len(raw) == 0 || string(raw) == "null" {
		page.Results = []T{}
		return page, nil
	}
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &page.Results); err != nil {
			return page, err
		}
		page.Count = len(page.Results)
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return page, err
		}
		if _, ok := probe["results"]; !ok {
			if inner, ok := probe["data"]; ok {
				return DecodeList[T](inner)
			}
			return page, fmt.Errorf("list response has neither results nor data")
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return page, err
		}
	default:
		return page, fmt.Errorf("unexpected list payload")
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}
