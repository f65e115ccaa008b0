package billingsync

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the aggregate outcome of a connection's most recent run.
type SyncStatus string

const (
	// SyncStatusSuccess means every enabled entity kind completed without errors.
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusPartial means at least one kind ran and at least one recorded errors.
	SyncStatusPartial SyncStatus = "partial"
	// SyncStatusFailed means the run aborted before any kind completed.
	SyncStatusFailed SyncStatus = "failed"
)

// IsValid returns true if the status is one of the known values.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus.
func (s SyncStatus) String() string { return string(s) }

// EntityKind identifies one of the remote entity types the engine mirrors.
type EntityKind string

const (
	EntityKindCustomer     EntityKind = "customers"
	EntityKindInvoice      EntityKind = "invoices"
	EntityKindQuote        EntityKind = "quotes"
	EntityKindSubscription EntityKind = "subscriptions"
)

// AllEntityKinds returns the entity kinds in sync order: customers first, then
// the kinds whose payloads reference customers by opaque id.
func AllEntityKinds() []EntityKind {
	return []EntityKind{EntityKindCustomer, EntityKindInvoice, EntityKindQuote, EntityKindSubscription}
}

// IsValid returns true if the kind is one of the known values.
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindCustomer, EntityKindInvoice, EntityKindQuote, EntityKindSubscription:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityKind.
func (k EntityKind) String() string { return string(k) }

// Connection is one configured remote billing account: credentials, per-kind
// enablement flags, and the status fields of its most recent sync run.
// Connections are created and edited by the management API; the sync engine
// reads them and mutates only the last-sync fields.
type Connection struct {
	ID          uuid.UUID
	Name        string
	APIToken    string
	CompanyName string
	IsActive    bool

	SyncCustomers     bool
	SyncInvoices      bool
	SyncQuotes        bool
	SyncSubscriptions bool

	LastSyncAt     *time.Time
	LastSyncStatus SyncStatus
	LastSyncError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConnection creates a connection with all entity kinds enabled.
func NewConnection(name, apiToken string) (*Connection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "connection name is required"}
	}
	if strings.TrimSpace(apiToken) == "" {
		return nil, &ValidationError{Field: "api_token", Message: "API token is required"}
	}
	now := time.Now()
	return &Connection{
		ID:                uuid.New(),
		Name:              name,
		APIToken:          apiToken,
		IsActive:          true,
		SyncCustomers:     true,
		SyncInvoices:      true,
		SyncQuotes:        true,
		SyncSubscriptions: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// KindEnabled reports whether syncing is enabled for the given entity kind.
func (c *Connection) KindEnabled(kind EntityKind) bool {
	switch kind {
	case EntityKindCustomer:
		return c.SyncCustomers
	case EntityKindInvoice:
		return c.SyncInvoices
	case EntityKindQuote:
		return c.SyncQuotes
	case EntityKindSubscription:
		return c.SyncSubscriptions
	default:
		return false
	}
}

// EnabledKinds returns the enabled kinds in sync order.
func (c *Connection) EnabledKinds() []EntityKind {
	kinds := make([]EntityKind, 0, 4)
	for _, kind := range AllEntityKinds() {
		if c.KindEnabled(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// RecordSyncOutcome stamps the result of a completed (or aborted) run onto the
// connection's status fields.
func (c *Connection) RecordSyncOutcome(at time.Time, status SyncStatus, errText string) {
	c.LastSyncAt = &at
	c.LastSyncStatus = status
	c.LastSyncError = errText
	c.UpdatedAt = at
}

// ValidationError reports an invalid connection field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "billingsync: " + e.Field + ": " + e.Message
}
