// Package domain holds the client-side projections of the marketplace resources.
// The server owns identity and lifecycle; these types only mirror its JSON.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Decimal decodes money-like values sent either as JSON numbers or as strings ("49.99").
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decimal %q: %w", s, err)
	}
	*d = Decimal(f)
	return nil
}

func (d Decimal) Float64() float64 { return float64(d) }

func (d Decimal) String() string { return strconv.FormatFloat(float64(d), 'f', 2, 64) }

// Text decodes fields the server sends as a string or a bare number (durations).
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(string(b))
	return nil
}

// decodeRef accepts a bare id (number or numeric string) or a nested object.
// Objects are decoded into obj, which is expected to fill id through its own tag.
func decodeRef(b []byte, id *int64, obj any) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	switch b[0] {
	case '{':
		return json.Unmarshal(b, obj)
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("ref id %q: %w", s, err)
		}
		*id = n
		return nil
	default:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("ref id %s: %w", b, err)
		}
		*id = n
		return nil
	}
}

// Pagination is the count/next/previous part of a paginated response.
type Pagination struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

type Page[T any] struct {
	Results []T `json:"results"`
	Pagination
}
