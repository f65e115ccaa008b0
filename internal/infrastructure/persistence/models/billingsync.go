package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partnerhub/backend/internal/domain/billingsync"
)

// BillingConnectionModel is the persistence model for the billingsync.Connection entity.
type BillingConnectionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_billing_connections_name"`
	APIToken    string    `gorm:"type:text;not null"`
	CompanyName string    `gorm:"type:varchar(255)"`
	IsActive    bool      `gorm:"not null;default:true;index"`

	SyncCustomers     bool `gorm:"not null;default:true"`
	SyncInvoices      bool `gorm:"not null;default:true"`
	SyncQuotes        bool `gorm:"not null;default:true"`
	SyncSubscriptions bool `gorm:"not null;default:true"`

	LastSyncAt     *time.Time
	LastSyncStatus string `gorm:"type:varchar(20)"`
	LastSyncError  string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillingConnectionModel) TableName() string {
	return "billing_connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *BillingConnectionModel) ToDomain() *billingsync.Connection {
	return &billingsync.Connection{
		ID:                m.ID,
		Name:              m.Name,
		APIToken:          m.APIToken,
		CompanyName:       m.CompanyName,
		IsActive:          m.IsActive,
		SyncCustomers:     m.SyncCustomers,
		SyncInvoices:      m.SyncInvoices,
		SyncQuotes:        m.SyncQuotes,
		SyncSubscriptions: m.SyncSubscriptions,
		LastSyncAt:        m.LastSyncAt,
		LastSyncStatus:    billingsync.SyncStatus(m.LastSyncStatus),
		LastSyncError:     m.LastSyncError,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Connection entity.
func (m *BillingConnectionModel) FromDomain(c *billingsync.Connection) {
	m.ID = c.ID
	m.Name = c.Name
	m.APIToken = c.APIToken
	m.CompanyName = c.CompanyName
	m.IsActive = c.IsActive
	m.SyncCustomers = c.SyncCustomers
	m.SyncInvoices = c.SyncInvoices
	m.SyncQuotes = c.SyncQuotes
	m.SyncSubscriptions = c.SyncSubscriptions
	m.LastSyncAt = c.LastSyncAt
	m.LastSyncStatus = c.LastSyncStatus.String()
	m.LastSyncError = c.LastSyncError
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// RemoteCustomerModel is the persistence model for billingsync.RemoteCustomer.
// (connection_id, remote_id) carries the uniqueness constraint that makes
// repeated syncs idempotent.
type RemoteCustomerModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ConnectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_remote_customers_conn_remote,priority:1"`
	RemoteID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_remote_customers_conn_remote,priority:2"`

	Name      string `gorm:"type:varchar(255)"`
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	Email     string `gorm:"type:varchar(255)"`
	Phone     string `gorm:"type:varchar(50)"`

	Address     string `gorm:"type:text"`
	City        string `gorm:"type:varchar(100)"`
	PostalCode  string `gorm:"type:varchar(20)"`
	CountryCode string `gorm:"type:varchar(2)"`

	DeliveryAddress     string `gorm:"type:text"`
	DeliveryCity        string `gorm:"type:varchar(100)"`
	DeliveryPostalCode  string `gorm:"type:varchar(20)"`
	DeliveryCountryCode string `gorm:"type:varchar(2)"`

	VATNumber         string `gorm:"type:varchar(50)"`
	CustomerType      string `gorm:"type:varchar(20)"`
	RegNo             string `gorm:"type:varchar(50)"`
	Recipient         string `gorm:"type:varchar(255)"`
	Reference         string `gorm:"type:varchar(255)"`
	ExternalReference string `gorm:"type:varchar(255)"`
	BillingLanguage   string `gorm:"type:varchar(10)"`
	PaymentConditions string `gorm:"type:varchar(100)"`
	Notes             string `gorm:"type:text"`
	BillingIBAN       string `gorm:"type:varchar(50)"`

	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time

	RawData  string    `gorm:"type:jsonb;column:raw_data"`
	SyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RemoteCustomerModel) TableName() string {
	return "remote_customers"
}

// ToDomain converts the persistence model to a domain RemoteCustomer entity.
func (m *RemoteCustomerModel) ToDomain() *billingsync.RemoteCustomer {
	return &billingsync.RemoteCustomer{
		ID:                  m.ID,
		ConnectionID:        m.ConnectionID,
		RemoteID:            m.RemoteID,
		Name:                m.Name,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		PostalCode:          m.PostalCode,
		CountryCode:         m.CountryCode,
		DeliveryAddress:     m.DeliveryAddress,
		DeliveryCity:        m.DeliveryCity,
		DeliveryPostalCode:  m.DeliveryPostalCode,
		DeliveryCountryCode: m.DeliveryCountryCode,
		VATNumber:           m.VATNumber,
		CustomerType:        m.CustomerType,
		RegNo:               m.RegNo,
		Recipient:           m.Recipient,
		Reference:           m.Reference,
		ExternalReference:   m.ExternalReference,
		BillingLanguage:     m.BillingLanguage,
		PaymentConditions:   m.PaymentConditions,
		Notes:               m.Notes,
		BillingIBAN:         m.BillingIBAN,
		RemoteCreatedAt:     m.RemoteCreatedAt,
		RemoteUpdatedAt:     m.RemoteUpdatedAt,
		RawData:             m.RawData,
		SyncedAt:            m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain RemoteCustomer entity.
func (m *RemoteCustomerModel) FromDomain(c *billingsync.RemoteCustomer) {
	m.ID = c.ID
	m.ConnectionID = c.ConnectionID
	m.RemoteID = c.RemoteID
	m.Name = c.Name
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.City = c.City
	m.PostalCode = c.PostalCode
	m.CountryCode = c.CountryCode
	m.DeliveryAddress = c.DeliveryAddress
	m.DeliveryCity = c.DeliveryCity
	m.DeliveryPostalCode = c.DeliveryPostalCode
	m.DeliveryCountryCode = c.DeliveryCountryCode
	m.VATNumber = c.VATNumber
	m.CustomerType = c.CustomerType
	m.RegNo = c.RegNo
	m.Recipient = c.Recipient
	m.Reference = c.Reference
	m.ExternalReference = c.ExternalReference
	m.BillingLanguage = c.BillingLanguage
	m.PaymentConditions = c.PaymentConditions
	m.Notes = c.Notes
	m.BillingIBAN = c.BillingIBAN
	m.RemoteCreatedAt = c.RemoteCreatedAt
	m.RemoteUpdatedAt = c.RemoteUpdatedAt
	m.RawData = c.RawData
	m.SyncedAt = c.SyncedAt
}

// RemoteInvoiceModel is the persistence model for billingsync.RemoteInvoice.
type RemoteInvoiceModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ConnectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_remote_invoices_conn_remote,priority:1"`
	RemoteID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_remote_invoices_conn_remote,priority:2"`

	InvoiceNumber    string `gorm:"type:varchar(100);index"`
	Status           string `gorm:"type:varchar(50)"`
	CustomerRemoteID string `gorm:"type:varchar(100);index"`
	CustomerName     string `gorm:"type:varchar(255)"`

	Amount   *decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency string           `gorm:"type:varchar(3)"`

	IssueDate *time.Time
	DueDate   *time.Time
	PaidDate  *time.Time

	PDFURL string `gorm:"type:text;column:pdf_url"`

	ContractID *uuid.UUID `gorm:"type:uuid;index"`
	NoContract bool       `gorm:"not null;default:false"`

	RawData  string    `gorm:"type:jsonb;column:raw_data"`
	SyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RemoteInvoiceModel) TableName() string {
	return "remote_invoices"
}

// ToDomain converts the persistence model to a domain RemoteInvoice entity.
func (m *RemoteInvoiceModel) ToDomain() *billingsync.RemoteInvoice {
	return &billingsync.RemoteInvoice{
		ID:               m.ID,
		ConnectionID:     m.ConnectionID,
		RemoteID:         m.RemoteID,
		InvoiceNumber:    m.InvoiceNumber,
		Status:           m.Status,
		CustomerRemoteID: m.CustomerRemoteID,
		CustomerName:     m.CustomerName,
		Amount:           m.Amount,
		Currency:         m.Currency,
		IssueDate:        m.IssueDate,
		DueDate:          m.DueDate,
		PaidDate:         m.PaidDate,
		PDFURL:           m.PDFURL,
		ContractID:       m.ContractID,
		NoContract:       m.NoContract,
		RawData:          m.RawData,
		SyncedAt:         m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain RemoteInvoice entity.
func (m *RemoteInvoiceModel) FromDomain(inv *billingsync.RemoteInvoice) {
	m.ID = inv.ID
	m.ConnectionID = inv.ConnectionID
	m.RemoteID = inv.RemoteID
	m.InvoiceNumber = inv.InvoiceNumber
	m.Status = inv.Status
	m.CustomerRemoteID = inv.CustomerRemoteID
	m.CustomerName = inv.CustomerName
	m.Amount = inv.Amount
	m.Currency = inv.Currency
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.PaidDate = inv.PaidDate
	m.PDFURL = inv.PDFURL
	m.ContractID = inv.ContractID
	m.NoContract = inv.NoContract
	m.RawData = inv.RawData
	m.SyncedAt = inv.SyncedAt
}

// RemoteQuoteModel is the persistence model for billingsync.RemoteQuote.
type RemoteQuoteModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ConnectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_remote_quotes_conn_remote,priority:1"`
	RemoteID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_remote_quotes_conn_remote,priority:2"`

	QuoteNumber      string `gorm:"type:varchar(100);index"`
	Status           string `gorm:"type:varchar(50)"`
	CustomerRemoteID string `gorm:"type:varchar(100);index"`
	CustomerName     string `gorm:"type:varchar(255)"`

	Amount   *decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency string           `gorm:"type:varchar(3)"`

	IssueDate  *time.Time
	ValidUntil *time.Time
	AcceptedAt *time.Time

	RawData  string    `gorm:"type:jsonb;column:raw_data"`
	SyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RemoteQuoteModel) TableName() string {
	return "remote_quotes"
}

// ToDomain converts the persistence model to a domain RemoteQuote entity.
func (m *RemoteQuoteModel) ToDomain() *billingsync.RemoteQuote {
	return &billingsync.RemoteQuote{
		ID:               m.ID,
		ConnectionID:     m.ConnectionID,
		RemoteID:         m.RemoteID,
		QuoteNumber:      m.QuoteNumber,
		Status:           m.Status,
		CustomerRemoteID: m.CustomerRemoteID,
		CustomerName:     m.CustomerName,
		Amount:           m.Amount,
		Currency:         m.Currency,
		IssueDate:        m.IssueDate,
		ValidUntil:       m.ValidUntil,
		AcceptedAt:       m.AcceptedAt,
		RawData:          m.RawData,
		SyncedAt:         m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain RemoteQuote entity.
func (m *RemoteQuoteModel) FromDomain(q *billingsync.RemoteQuote) {
	m.ID = q.ID
	m.ConnectionID = q.ConnectionID
	m.RemoteID = q.RemoteID
	m.QuoteNumber = q.QuoteNumber
	m.Status = q.Status
	m.CustomerRemoteID = q.CustomerRemoteID
	m.CustomerName = q.CustomerName
	m.Amount = q.Amount
	m.Currency = q.Currency
	m.IssueDate = q.IssueDate
	m.ValidUntil = q.ValidUntil
	m.AcceptedAt = q.AcceptedAt
	m.RawData = q.RawData
	m.SyncedAt = q.SyncedAt
}

// RemoteSubscriptionModel is the persistence model for billingsync.RemoteSubscription.
type RemoteSubscriptionModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ConnectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_remote_subscriptions_conn_remote,priority:1"`
	RemoteID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_remote_subscriptions_conn_remote,priority:2"`

	Status           string `gorm:"type:varchar(50)"`
	CustomerRemoteID string `gorm:"type:varchar(100);index"`
	CustomerName     string `gorm:"type:varchar(255)"`

	Amount          *decimal.Decimal `gorm:"type:decimal(20,2)"`
	Currency        string           `gorm:"type:varchar(3)"`
	BillingInterval string           `gorm:"type:varchar(50)"`

	StartDate       *time.Time
	NextBillingDate *time.Time
	CancelledAt     *time.Time

	RawData  string    `gorm:"type:jsonb;column:raw_data"`
	SyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RemoteSubscriptionModel) TableName() string {
	return "remote_subscriptions"
}

// ToDomain converts the persistence model to a domain RemoteSubscription entity.
func (m *RemoteSubscriptionModel) ToDomain() *billingsync.RemoteSubscription {
	return &billingsync.RemoteSubscription{
		ID:               m.ID,
		ConnectionID:     m.ConnectionID,
		RemoteID:         m.RemoteID,
		Status:           m.Status,
		CustomerRemoteID: m.CustomerRemoteID,
		CustomerName:     m.CustomerName,
		Amount:           m.Amount,
		Currency:         m.Currency,
		BillingInterval:  m.BillingInterval,
		StartDate:        m.StartDate,
		NextBillingDate:  m.NextBillingDate,
		CancelledAt:      m.CancelledAt,
		RawData:          m.RawData,
		SyncedAt:         m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain RemoteSubscription entity.
func (m *RemoteSubscriptionModel) FromDomain(s *billingsync.RemoteSubscription) {
	m.ID = s.ID
	m.ConnectionID = s.ConnectionID
	m.RemoteID = s.RemoteID
	m.Status = s.Status
	m.CustomerRemoteID = s.CustomerRemoteID
	m.CustomerName = s.CustomerName
	m.Amount = s.Amount
	m.Currency = s.Currency
	m.BillingInterval = s.BillingInterval
	m.StartDate = s.StartDate
	m.NextBillingDate = s.NextBillingDate
	m.CancelledAt = s.CancelledAt
	m.RawData = s.RawData
	m.SyncedAt = s.SyncedAt
}
