package domain

import "errors"

// FindNextRequest asks for the next order an account can work on.
type FindNextRequest struct {
	Token       string
	AccountName string
	Network     string
	ActionTypes []string
}

type FindNextStatus string

const (
	StatusFound    FindNextStatus = "FOUND"
	StatusNotFound FindNextStatus = "NOT_FOUND"
)

// FindNextResult carries the reserved action when Status is FOUND.
type FindNextResult struct {
	Status     FindNextStatus `json:"status"`
	ActionID   string         `json:"action_id,omitempty"`
	OrderID    string         `json:"order_id,omitempty"`
	AccountID  string         `json:"account_id,omitempty"`
	ActionType string         `json:"action_type,omitempty"`
	TargetName string         `json:"target_handle,omitempty"`
	URL        string         `json:"target_link,omitempty"`
	Quantity   int            `json:"quantity,omitempty"`
	Value      string         `json:"payout,omitempty"`
}

type SkipStatus string

const (
	SkipRecorded       SkipStatus = "RECORDED"
	SkipAlreadySkipped SkipStatus = "ALREADY_SKIPPED"
)

type SkipRequest struct {
	Token       string
	AccountName string
	OrderID     string
}

type SkipResult struct {
	Status SkipStatus `json:"status"`
}

var (
	ErrMissingToken   = errors.New("missing_token")
	ErrMissingOrderID = errors.New("missing_order_id")
)
