package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Keyset paging for list endpoints. A page token is the base64 JSON
// encoding of the last returned row's sort key (created_at, id), so
// pages stay stable while new rows are inserted ahead of the cursor.

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var ErrInvalidToken = errors.New("invalid_page_token")

type Request struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps the requested page size into [1, maxPageSize].
func (r Request) Limit() int {
	switch {
	case r.PageSize <= 0:
		return defaultPageSize
	case r.PageSize > maxPageSize:
		return maxPageSize
	default:
		return r.PageSize
	}
}

type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func Encode(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

// Decode parses a page token back into a cursor. An empty token means
// the first page and decodes to nil.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// Trim expects rows fetched with limit+1 and drops the lookahead row.
// When a next page exists the returned PageInfo carries its token.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, PageInfo) {
	if len(rows) <= limit {
		return rows, PageInfo{}
	}
	rows = rows[:limit]
	return rows, PageInfo{
		HasMore:       true,
		NextPageToken: Encode(cursorOf(rows[len(rows)-1])),
	}
}
