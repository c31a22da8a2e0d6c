package types

import (
	"fmt"
	"time"
)

// Pollen is a candidate bud proposed by an external source. It stays
// pending until a human (or policy) seeds it into a real bud or rejects
// it; both outcomes are terminal.
type Pollen struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Source       string       `json:"source,omitempty"`
	Confidence   float64      `json:"confidence"`
	Status       PollenStatus `json:"status"`
	BudID        *int64       `json:"bud_id,omitempty"` // set when seeded
	RejectReason string       `json:"reject_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	ProcessedAt  *time.Time   `json:"processed_at,omitempty"`
}

// Validate checks the pollen for domain-constraint violations.
func (p *Pollen) Validate() error {
	if p.Title == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return &ValidationError{Field: "confidence", Reason: fmt.Sprintf("confidence must be in [0,1] (got %g)", p.Confidence)}
	}
	if !p.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", p.Status)}
	}
	return nil
}

// PollenStatus is the lifecycle state of a pollen record.
type PollenStatus string

// Pollen status constants
const (
	PollenPending  PollenStatus = "pending"
	PollenSeededOK PollenStatus = "seeded"
	PollenRejected PollenStatus = "rejected"
)

// IsValid checks if the status value is valid.
func (s PollenStatus) IsValid() bool {
	switch s {
	case PollenPending, PollenSeededOK, PollenRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the pollen has been processed.
func (s PollenStatus) IsTerminal() bool {
	return s == PollenSeededOK || s == PollenRejected
}

// Dew is an ambient, time-bounded context signal, optionally attached to
// one hierarchy item. Dew is advisory only: deleting the referenced item
// orphans the dew, which later evaporates by expiry.
type Dew struct {
	ID         int64      `json:"id"`
	ItemType   *ItemType  `json:"item_type,omitempty"`
	ItemID     *int64     `json:"item_id,omitempty"`
	Content    string     `json:"content"`
	Source     string     `json:"source,omitempty"`
	Status     DewStatus  `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	AbsorbedAt *time.Time `json:"absorbed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks the dew for domain-constraint violations.
func (d *Dew) Validate() error {
	if d.Content == "" {
		return &ValidationError{Field: "content", Reason: "content is required"}
	}
	if !d.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", d.Status)}
	}
	if d.ItemType != nil && !d.ItemType.IsValid() {
		return &ValidationError{Field: "item_type", Reason: fmt.Sprintf("invalid item type: %s", *d.ItemType)}
	}
	if (d.ItemType == nil) != (d.ItemID == nil) {
		return &ValidationError{Field: "item_id", Reason: "item_type and item_id must be set together"}
	}
	return nil
}

// IsExpired reports whether a fresh dew's expiry has passed. Dew without
// an expiry never expires on its own.
func (d *Dew) IsExpired(now time.Time) bool {
	if d.Status != DewFresh || d.ExpiresAt == nil {
		return false
	}
	return !d.ExpiresAt.After(now)
}

// DewStatus is the lifecycle state of a dew record.
type DewStatus string

// Dew status constants
const (
	DewFresh      DewStatus = "fresh"
	DewAbsorbed   DewStatus = "absorbed"
	DewEvaporated DewStatus = "evaporated"
)

// IsValid checks if the status value is valid.
func (s DewStatus) IsValid() bool {
	switch s {
	case DewFresh, DewAbsorbed, DewEvaporated:
		return true
	}
	return false
}
