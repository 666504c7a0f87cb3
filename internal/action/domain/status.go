package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a ledger entry. Exactly four
// variants exist; legacy spellings from the previous system
// ("pendente", "valida", "pulada", plus the reserved/pending synonym
// pair) are normalized at the scan boundary so nothing downstream ever
// branches on a raw string.
type Status string

const (
	StatusPending Status = "pending"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusSkipped Status = "skipped"
)

// LiveStatuses are the states that count against an order's quota:
// claimed-but-unproven plus verified.
func LiveStatuses() []Status {
	return []Status{StatusPending, StatusValid}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusSkipped:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "pendente", "reserved", "reservada":
		return StatusPending, true
	case "valid", "valida":
		return StatusValid, true
	case "invalid", "invalida":
		return StatusInvalid, true
	case "skipped", "pulada":
		return StatusSkipped, true
	default:
		return "", false
	}
}

func (s *Status) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = StatusPending
		return nil
	default:
		return fmt.Errorf("unsupported status type %T", value)
	}
	parsed, ok := ParseStatus(raw)
	if !ok {
		return fmt.Errorf("unknown action status %q", raw)
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if s == "" {
		return string(StatusPending), nil
	}
	if _, ok := ParseStatus(string(s)); !ok {
		return nil, fmt.Errorf("unknown action status %q", string(s))
	}
	parsed, _ := ParseStatus(string(s))
	return string(parsed), nil
}
