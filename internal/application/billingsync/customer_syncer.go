package billingsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// customerSyncer mirrors remote customers. Customers carry no references to
// other kinds, which is why they always sync first.
type customerSyncer struct{}

func (customerSyncer) Kind() billingsync.EntityKind { return billingsync.EntityKindCustomer }

func (customerSyncer) Path() string { return pennylane.EndpointCustomers }

func (customerSyncer) RemoteID(rec record) string {
	return rec.firstString("id", "source_id")
}

func (customerSyncer) Upsert(ctx context.Context, tx billingsync.Store, connectionID uuid.UUID, remoteID string, rec record, raw json.RawMessage, syncedAt time.Time) (bool, error) {
	existing, err := tx.Customers().FindByRemoteID(ctx, connectionID, remoteID)
	if err := notFoundOK(err); err != nil {
		return false, err
	}

	// Billing address prefers the nested object; delivery address is read
	// separately and never falls back to billing fields.
	billing := rec.object("billing_address")
	delivery := rec.object("delivery_address")

	email := rec.firstString("email")
	if email == "" {
		email = rec.firstStringList("emails")
	}

	customerType := rec.firstString("customer_type")
	if customerType == "" {
		if rec.firstString("company_name") != "" {
			customerType = "company"
		} else {
			customerType = "individual"
		}
	}

	customer := &billingsync.RemoteCustomer{
		ConnectionID: connectionID,
		RemoteID:     remoteID,

		Name:      rec.firstString("name", "company_name"),
		FirstName: rec.firstString("first_name"),
		LastName:  rec.firstString("last_name"),
		Email:     email,
		Phone:     rec.firstString("phone"),

		Address:     firstOf(billing.firstString("address"), rec.firstString("address")),
		City:        firstOf(billing.firstString("city"), rec.firstString("city")),
		PostalCode:  firstOf(billing.firstString("postal_code"), rec.firstString("postal_code", "zipcode")),
		CountryCode: firstOf(billing.firstString("country_alpha2"), rec.firstString("country", "country_alpha2")),

		DeliveryAddress:     delivery.firstString("address"),
		DeliveryCity:        delivery.firstString("city"),
		DeliveryPostalCode:  delivery.firstString("postal_code"),
		DeliveryCountryCode: delivery.firstString("country_alpha2"),

		VATNumber:         rec.firstString("vat_number"),
		CustomerType:      customerType,
		RegNo:             rec.firstString("reg_no"),
		Recipient:         rec.firstString("recipient"),
		Reference:         rec.firstString("reference"),
		ExternalReference: rec.firstString("external_reference"),
		BillingLanguage:   rec.firstString("billing_language"),
		PaymentConditions: rec.firstString("payment_conditions"),
		Notes:             rec.firstString("notes"),
		BillingIBAN:       rec.firstString("billing_iban"),

		RemoteCreatedAt: rec.firstTime("created_at"),
		RemoteUpdatedAt: rec.firstTime("updated_at"),

		RawData:  string(raw),
		SyncedAt: syncedAt,
	}

	if existing != nil {
		customer.ID = existing.ID
		return false, tx.Customers().Update(ctx, customer)
	}
	customer.ID = uuid.New()
	return true, tx.Customers().Create(ctx, customer)
}

// firstOf returns the first non-empty string.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
