package billingsync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RemoteCustomer mirrors one customer record from the billing provider.
// (ConnectionID, RemoteID) is the idempotency key: re-syncing an unchanged
// remote dataset must produce no new rows and no field deltas.
type RemoteCustomer struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	RemoteID     string

	Name      string
	FirstName string
	LastName  string
	Email     string
	Phone     string

	// Billing address, preferring the provider's nested billing_address object.
	Address     string
	City        string
	PostalCode  string
	CountryCode string

	// Delivery address, kept separate from billing.
	DeliveryAddress     string
	DeliveryCity        string
	DeliveryPostalCode  string
	DeliveryCountryCode string

	VATNumber         string
	CustomerType      string
	RegNo             string
	Recipient         string
	Reference         string
	ExternalReference string
	BillingLanguage   string
	PaymentConditions string
	Notes             string
	BillingIBAN       string

	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time

	// RawData retains the complete untouched remote payload.
	RawData  string
	SyncedAt time.Time
}

// RemoteInvoice mirrors one customer invoice from the billing provider.
// ContractID links the invoice to a contract owned by the order/contract
// subsystem; NoContract distinguishes "not yet linked" from "explicitly has
// no contract".
type RemoteInvoice struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	RemoteID     string

	InvoiceNumber    string
	Status           string
	CustomerRemoteID string
	CustomerName     string

	Amount   *decimal.Decimal
	Currency string

	IssueDate *time.Time
	DueDate   *time.Time
	PaidDate  *time.Time

	PDFURL string

	ContractID *uuid.UUID
	NoContract bool

	RawData  string
	SyncedAt time.Time
}

// RemoteQuote mirrors one quote from the billing provider.
type RemoteQuote struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	RemoteID     string

	QuoteNumber      string
	Status           string
	CustomerRemoteID string
	CustomerName     string

	Amount   *decimal.Decimal
	Currency string

	IssueDate  *time.Time
	ValidUntil *time.Time
	AcceptedAt *time.Time

	RawData  string
	SyncedAt time.Time
}

// RemoteSubscription mirrors one recurring billing subscription.
type RemoteSubscription struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	RemoteID     string

	Status           string
	CustomerRemoteID string
	CustomerName     string

	Amount          *decimal.Decimal
	Currency        string
	BillingInterval string

	StartDate       *time.Time
	NextBillingDate *time.Time
	CancelledAt     *time.Time

	RawData  string
	SyncedAt time.Time
}
