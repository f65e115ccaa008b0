package billingsync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConnectionRepository persists billing connections. The sync engine reads
// connections and stamps last-sync status; the write side (Create/Update/
// Delete) serves the management API.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *Connection) error
	Update(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)
	FindByName(ctx context.Context, name string) (*Connection, error)
	FindAll(ctx context.Context) ([]Connection, error)
	FindActive(ctx context.Context) ([]Connection, error)
	// RecordSyncOutcome updates only the last-sync fields. It is issued in its
	// own scope so a failed run never leaves the status stale.
	RecordSyncOutcome(ctx context.Context, id uuid.UUID, at time.Time, status SyncStatus, errText string) error
}

// RemoteCustomerRepository persists mirrored customers.
type RemoteCustomerRepository interface {
	FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*RemoteCustomer, error)
	Create(ctx context.Context, customer *RemoteCustomer) error
	Update(ctx context.Context, customer *RemoteCustomer) error
	// NamesByConnection returns remote-id → display-name for every stored
	// customer of the connection, used to resolve names on dependent entities.
	NamesByConnection(ctx context.Context, connectionID uuid.UUID) (map[string]string, error)
	CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error)
}

// RemoteInvoiceRepository persists mirrored invoices.
type RemoteInvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RemoteInvoice, error)
	FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*RemoteInvoice, error)
	Create(ctx context.Context, invoice *RemoteInvoice) error
	Update(ctx context.Context, invoice *RemoteInvoice) error
	// SetContractLink applies the tri-state contract linkage: a contract id to
	// link, nil+noContract to mark "explicitly has no contract", nil+false to
	// clear the link entirely.
	SetContractLink(ctx context.Context, id uuid.UUID, contractID *uuid.UUID, noContract bool) error
	CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error)
}

// RemoteQuoteRepository persists mirrored quotes.
type RemoteQuoteRepository interface {
	FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*RemoteQuote, error)
	Create(ctx context.Context, quote *RemoteQuote) error
	Update(ctx context.Context, quote *RemoteQuote) error
	CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error)
}

// RemoteSubscriptionRepository persists mirrored subscriptions.
type RemoteSubscriptionRepository interface {
	FindByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID string) (*RemoteSubscription, error)
	Create(ctx context.Context, sub *RemoteSubscription) error
	Update(ctx context.Context, sub *RemoteSubscription) error
	CountByConnection(ctx context.Context, connectionID uuid.UUID) (int64, error)
}

// Store bundles the engine's repositories behind one handle and provides the
// transactional scope the syncers commit through: all writes for one entity
// kind share one transaction and commit together.
type Store interface {
	Connections() ConnectionRepository
	Customers() RemoteCustomerRepository
	Invoices() RemoteInvoiceRepository
	Quotes() RemoteQuoteRepository
	Subscriptions() RemoteSubscriptionRepository

	// WithinTransaction runs fn against a Store bound to a single database
	// transaction; returning an error rolls everything back.
	WithinTransaction(ctx context.Context, fn func(Store) error) error
}
