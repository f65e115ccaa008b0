package billingsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// invoiceSyncer mirrors customer invoices. The remote payload references its
// customer only as {"customer": {"id": …}}; display names come from the
// lookup built off the stored customers of the connection.
type invoiceSyncer struct {
	nameLookup map[string]string
}

func (invoiceSyncer) Kind() billingsync.EntityKind { return billingsync.EntityKindInvoice }

func (invoiceSyncer) Path() string { return pennylane.EndpointInvoices }

func (invoiceSyncer) RemoteID(rec record) string { return rec.stringValue("id") }

func (s invoiceSyncer) Upsert(ctx context.Context, tx billingsync.Store, connectionID uuid.UUID, remoteID string, rec record, raw json.RawMessage, syncedAt time.Time) (bool, error) {
	existing, err := tx.Invoices().FindByRemoteID(ctx, connectionID, remoteID)
	if err := notFoundOK(err); err != nil {
		return false, err
	}

	customerRemoteID := rec.customerRemoteID()

	currency := rec.firstString("currency")
	if currency == "" {
		currency = "EUR"
	}

	invoice := &billingsync.RemoteInvoice{
		ConnectionID: connectionID,
		RemoteID:     remoteID,

		InvoiceNumber:    rec.firstString("invoice_number", "label"),
		Status:           rec.firstString("status"),
		CustomerRemoteID: customerRemoteID,
		CustomerName:     s.nameLookup[customerRemoteID],

		Amount:   rec.firstDecimal("amount", "total"),
		Currency: currency,

		IssueDate: rec.firstTime("date", "issue_date"),
		DueDate:   rec.firstTime("deadline", "due_date"),
		PaidDate:  rec.firstTime("paid_date"),

		PDFURL: rec.firstURL("public_file_url", "file_url", "pdf_invoice_url", "public_url", "pdf_url"),

		RawData:  string(raw),
		SyncedAt: syncedAt,
	}

	if existing != nil {
		invoice.ID = existing.ID
		// Contract linkage is owned locally, never by the remote payload.
		invoice.ContractID = existing.ContractID
		invoice.NoContract = existing.NoContract
		return false, tx.Invoices().Update(ctx, invoice)
	}
	invoice.ID = uuid.New()
	return true, tx.Invoices().Create(ctx, invoice)
}
