package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/partnerhub/backend/internal/domain/billingsync"
)

// GormStore bundles the billing-sync repositories over a single *gorm.DB
// handle and implements billingsync.Store.
type GormStore struct {
	db            *gorm.DB
	connections   *GormBillingConnectionRepository
	customers     *GormRemoteCustomerRepository
	invoices      *GormRemoteInvoiceRepository
	quotes        *GormRemoteQuoteRepository
	subscriptions *GormRemoteSubscriptionRepository
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		connections:   NewGormBillingConnectionRepository(db),
		customers:     NewGormRemoteCustomerRepository(db),
		invoices:      NewGormRemoteInvoiceRepository(db),
		quotes:        NewGormRemoteQuoteRepository(db),
		subscriptions: NewGormRemoteSubscriptionRepository(db),
	}
}

func (s *GormStore) Connections() billingsync.ConnectionRepository {
	return s.connections
}

func (s *GormStore) Customers() billingsync.RemoteCustomerRepository {
	return s.customers
}

func (s *GormStore) Invoices() billingsync.RemoteInvoiceRepository {
	return s.invoices
}

func (s *GormStore) Quotes() billingsync.RemoteQuoteRepository {
	return s.quotes
}

func (s *GormStore) Subscriptions() billingsync.RemoteSubscriptionRepository {
	return s.subscriptions
}

// WithinTransaction runs fn against a Store bound to one database transaction.
// An error from fn rolls the whole transaction back.
func (s *GormStore) WithinTransaction(ctx context.Context, fn func(billingsync.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
