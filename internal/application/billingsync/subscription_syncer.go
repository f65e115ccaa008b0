package billingsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// keyPath addresses a field either at the payload root (empty Object) or
// inside a nested object.
type keyPath struct {
	Object string
	Field  string
}

// defaultSubscriptionAmountPaths prefers the nested customer_invoice_data
// object over the root keys. The remote API has shipped the amount in both
// places across versions, so the precedence stays configurable.
var defaultSubscriptionAmountPaths = []keyPath{
	{Object: "customer_invoice_data", Field: "amount"},
	{Field: "amount"},
}

var defaultSubscriptionCurrencyPaths = []keyPath{
	{Object: "customer_invoice_data", Field: "currency"},
	{Field: "currency"},
}

// subscriptionSyncer mirrors recurring billing subscriptions.
type subscriptionSyncer struct {
	nameLookup    map[string]string
	amountPaths   []keyPath
	currencyPaths []keyPath
}

func newSubscriptionSyncer(nameLookup map[string]string) subscriptionSyncer {
	return subscriptionSyncer{
		nameLookup:    nameLookup,
		amountPaths:   defaultSubscriptionAmountPaths,
		currencyPaths: defaultSubscriptionCurrencyPaths,
	}
}

func (subscriptionSyncer) Kind() billingsync.EntityKind { return billingsync.EntityKindSubscription }

func (subscriptionSyncer) Path() string { return pennylane.EndpointSubscriptions }

func (subscriptionSyncer) RemoteID(rec record) string { return rec.stringValue("id") }

func (s subscriptionSyncer) amount(rec record) *decimal.Decimal {
	for _, p := range s.amountPaths {
		scope := rec
		if p.Object != "" {
			scope = rec.object(p.Object)
		}
		if d := scope.firstDecimal(p.Field); d != nil {
			return d
		}
	}
	return nil
}

func (s subscriptionSyncer) currency(rec record) string {
	for _, p := range s.currencyPaths {
		scope := rec
		if p.Object != "" {
			scope = rec.object(p.Object)
		}
		if c := scope.firstString(p.Field); c != "" {
			return c
		}
	}
	return "EUR"
}

func (s subscriptionSyncer) Upsert(ctx context.Context, tx billingsync.Store, connectionID uuid.UUID, remoteID string, rec record, raw json.RawMessage, syncedAt time.Time) (bool, error) {
	existing, err := tx.Subscriptions().FindByRemoteID(ctx, connectionID, remoteID)
	if err := notFoundOK(err); err != nil {
		return false, err
	}

	customerRemoteID := rec.customerRemoteID()
	recurringRule := rec.object("recurring_rule")

	sub := &billingsync.RemoteSubscription{
		ConnectionID: connectionID,
		RemoteID:     remoteID,

		Status:           rec.firstString("status"),
		CustomerRemoteID: customerRemoteID,
		CustomerName:     s.nameLookup[customerRemoteID],

		Amount:          s.amount(rec),
		Currency:        s.currency(rec),
		BillingInterval: firstOf(recurringRule.firstString("rule_type"), rec.firstString("interval")),

		StartDate:       rec.firstTime("start", "start_date"),
		NextBillingDate: rec.firstTime("next_occurrence", "next_billing_date"),
		CancelledAt:     rec.firstTime("stopped_at", "cancelled_at"),

		RawData:  string(raw),
		SyncedAt: syncedAt,
	}

	if existing != nil {
		sub.ID = existing.ID
		return false, tx.Subscriptions().Update(ctx, sub)
	}
	sub.ID = uuid.New()
	return true, tx.Subscriptions().Create(ctx, sub)
}
