package types

import (
	"fmt"
	"time"
)

// ItemType tags which entity table a polymorphic reference points at.
// ActivityEvents and dew records carry one of these alongside an item id.
type ItemType string

// Item type constants
const (
	ItemGrove  ItemType = "grove"
	ItemTrunk  ItemType = "trunk"
	ItemBranch ItemType = "branch"
	ItemBud    ItemType = "bud"
)

// IsValid checks if the item type value is valid.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemGrove, ItemTrunk, ItemBranch, ItemBud:
		return true
	}
	return false
}

// ActivityEvent is one entry in the append-only audit trail. Events are
// inserted in the same transaction as the mutation they describe and are
// never updated or deleted.
type ActivityEvent struct {
	ID        int64     `json:"id"`
	ItemType  ItemType  `json:"item_type"`
	ItemID    int64     `json:"item_id"`
	EventType EventType `json:"event_type"`
	Content   string    `json:"content,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the event for domain-constraint violations.
func (e *ActivityEvent) Validate() error {
	if !e.ItemType.IsValid() {
		return &ValidationError{Field: "item_type", Reason: fmt.Sprintf("invalid item type: %s", e.ItemType)}
	}
	if !e.EventType.IsValid() {
		return &ValidationError{Field: "event_type", Reason: fmt.Sprintf("invalid event type: %s", e.EventType)}
	}
	return nil
}

// EventType categorizes audit trail events.
type EventType string

// Event type constants for the audit trail
const (
	EventCreated       EventType = "created"
	EventChecked       EventType = "checked"
	EventLog           EventType = "log"
	EventRefAdded      EventType = "ref_added"
	EventStatusChanged EventType = "status_changed"
	EventBeadSynced    EventType = "bead_synced"
	EventTidyScan      EventType = "tidy_scan"
	EventGrafted       EventType = "grafted"
	EventSplit         EventType = "split"
	EventDewAbsorbed   EventType = "dew_absorbed"
	EventPollenSeeded  EventType = "pollen_seeded"
)

// IsValid checks if the event type value is valid.
func (e EventType) IsValid() bool {
	switch e {
	case EventCreated, EventChecked, EventLog, EventRefAdded,
		EventStatusChanged, EventBeadSynced, EventTidyScan,
		EventGrafted, EventSplit, EventDewAbsorbed, EventPollenSeeded:
		return true
	}
	return false
}

// EventFilter narrows audit trail queries. Zero values mean "no filter";
// results are always returned newest first.
type EventFilter struct {
	ItemType  ItemType
	ItemID    int64 // only consulted when ItemType is set
	EventType EventType
	Since     *time.Time
	Until     *time.Time
	Limit     int
}
