package billingsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// quoteSyncer mirrors quotes.
type quoteSyncer struct {
	nameLookup map[string]string
}

func (quoteSyncer) Kind() billingsync.EntityKind { return billingsync.EntityKindQuote }

func (quoteSyncer) Path() string { return pennylane.EndpointQuotes }

func (quoteSyncer) RemoteID(rec record) string { return rec.stringValue("id") }

func (s quoteSyncer) Upsert(ctx context.Context, tx billingsync.Store, connectionID uuid.UUID, remoteID string, rec record, raw json.RawMessage, syncedAt time.Time) (bool, error) {
	existing, err := tx.Quotes().FindByRemoteID(ctx, connectionID, remoteID)
	if err := notFoundOK(err); err != nil {
		return false, err
	}

	customerRemoteID := rec.customerRemoteID()

	currency := rec.firstString("currency")
	if currency == "" {
		currency = "EUR"
	}

	quote := &billingsync.RemoteQuote{
		ConnectionID: connectionID,
		RemoteID:     remoteID,

		QuoteNumber:      rec.firstString("quote_number", "label"),
		Status:           rec.firstString("status"),
		CustomerRemoteID: customerRemoteID,
		CustomerName:     s.nameLookup[customerRemoteID],

		Amount:   rec.firstDecimal("amount", "total"),
		Currency: currency,

		IssueDate:  rec.firstTime("date", "issue_date"),
		ValidUntil: rec.firstTime("deadline", "expiry_date"),
		AcceptedAt: rec.firstTime("accepted_at"),

		RawData:  string(raw),
		SyncedAt: syncedAt,
	}

	if existing != nil {
		quote.ID = existing.ID
		return false, tx.Quotes().Update(ctx, quote)
	}
	quote.ID = uuid.New()
	return true, tx.Quotes().Create(ctx, quote)
}
