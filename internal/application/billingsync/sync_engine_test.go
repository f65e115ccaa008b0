package billingsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
	"github.com/partnerhub/backend/internal/infrastructure/persistence"
	"github.com/partnerhub/backend/internal/infrastructure/persistence/models"
)

// fakeBillingAPI serves the paginated envelope the remote API uses. Pages are
// keyed by endpoint path; the cursor is the next page index.
type fakeBillingAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	pages    map[string][][]map[string]any
	failWith map[string]int
	requests map[string]int
	company  string
}

func newFakeBillingAPI(t *testing.T) *fakeBillingAPI {
	t.Helper()
	f := &fakeBillingAPI{
		pages:    make(map[string][][]map[string]any),
		failWith: make(map[string]int),
		requests: make(map[string]int),
		company:  "Acme SARL",
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBillingAPI) setPages(path string, pages ...[]map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = pages
}

func (f *fakeBillingAPI) failPath(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith[path] = status
}

func (f *fakeBillingAPI) requestCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeBillingAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests[r.URL.Path]++
	status := f.failWith[r.URL.Path]
	pages := f.pages[r.URL.Path]
	company := f.company
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if r.URL.Path == "/me" {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"company": map[string]any{"id": 1, "name": company},
		})
		return
	}

	idx := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		idx, _ = strconv.Atoi(c)
	}

	items := []map[string]any{}
	if idx < len(pages) {
		items = pages[idx]
	}
	hasMore := idx+1 < len(pages)

	resp := map[string]any{"items": items, "has_more": hasMore}
	if hasMore {
		resp["next_cursor"] = strconv.Itoa(idx + 1)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newEngineStore(t *testing.T) *persistence.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.BillingConnectionModel{},
		&models.RemoteCustomerModel{},
		&models.RemoteInvoiceModel{},
		&models.RemoteQuoteModel{},
		&models.RemoteSubscriptionModel{},
	))
	return persistence.NewGormStore(db)
}

func newEngineClient(t *testing.T, baseURL string) *pennylane.Client {
	t.Helper()
	cfg := pennylane.NewConfig("test-token")
	cfg.BaseURL = baseURL
	cfg.RetryBaseDelay = time.Millisecond
	client, err := pennylane.NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func newEngineConnection(t *testing.T, store billingsync.Store, name string) *billingsync.Connection {
	t.Helper()
	conn, err := billingsync.NewConnection(name, "test-token")
	require.NoError(t, err)
	require.NoError(t, store.Connections().Create(context.Background(), conn))
	return conn
}

func customerItem(id int, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

// ---------------------------------------------------------------------------
// Idempotence
// ---------------------------------------------------------------------------

func TestOrchestrator_SyncAll_Idempotent(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customers", []map[string]any{
		customerItem(1, "Acme"),
		customerItem(2, "Globex"),
		customerItem(3, "Initech"),
	})
	api.setPages("/customer_invoices", []map[string]any{
		{"id": 10, "invoice_number": "F-001", "amount": "100.00", "customer": map[string]any{"id": 1}},
		{"id": 11, "invoice_number": "F-002", "amount": "250.50", "customer": map[string]any{"id": 2}},
	})
	api.setPages("/quotes")
	api.setPages("/billing_subscriptions")

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	first := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	require.Contains(t, first, billingsync.EntityKindCustomer)
	assert.Equal(t, 3, first[billingsync.EntityKindCustomer].Created)
	assert.Equal(t, 0, first[billingsync.EntityKindCustomer].Updated)
	assert.Equal(t, 2, first[billingsync.EntityKindInvoice].Created)
	assert.True(t, first[billingsync.EntityKindCustomer].Success)

	// Second run over the unchanged remote set: zero new rows, all updates.
	second := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	assert.Equal(t, 0, second[billingsync.EntityKindCustomer].Created)
	assert.Equal(t, 3, second[billingsync.EntityKindCustomer].Updated)
	assert.Equal(t, 0, second[billingsync.EntityKindInvoice].Created)
	assert.Equal(t, 2, second[billingsync.EntityKindInvoice].Updated)

	count, err := store.Customers().CountByConnection(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	status, err := store.Connections().FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, billingsync.SyncStatusSuccess, status.LastSyncStatus)
	assert.Empty(t, status.LastSyncError)
	assert.NotNil(t, status.LastSyncAt)
}

// ---------------------------------------------------------------------------
// Partial-failure isolation
// ---------------------------------------------------------------------------

func TestSyncKind_PartialFailureIsolation(t *testing.T) {
	items := make([]map[string]any, 0, 50)
	for i := 1; i <= 49; i++ {
		items = append(items, customerItem(i, fmt.Sprintf("Customer %d", i)))
	}
	// One record without an id is recorded as an error and skipped.
	items = append(items, map[string]any{"name": "No ID Corp"})

	api := newFakeBillingAPI(t)
	api.setPages("/customers", items)

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")

	result, err := syncKind(context.Background(), newEngineClient(t, api.srv.URL), store, conn.ID, customerSyncer{})
	require.NoError(t, err)

	assert.Equal(t, 50, result.TotalFetched)
	assert.Equal(t, 49, result.Created+result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing id")
	assert.False(t, result.Success)

	count, err := store.Customers().CountByConnection(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(49), count)
}

// ---------------------------------------------------------------------------
// Ordering dependency: names resolve from stored customers
// ---------------------------------------------------------------------------

func TestOrchestrator_NameLookupFromStoredCustomers(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customer_invoices", []map[string]any{
		{"id": 10, "invoice_number": "F-001", "customer": map[string]any{"id": 1}},
		{"id": 11, "invoice_number": "F-002", "customer": map[string]any{"id": 9}},
	})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	// Customers synced in some earlier run; this run has customer sync off.
	require.NoError(t, store.Customers().Create(ctx, &billingsync.RemoteCustomer{
		ID:           uuid.New(),
		ConnectionID: conn.ID,
		RemoteID:     "1",
		Name:         "Acme",
		SyncedAt:     time.Now(),
	}))
	conn.SyncCustomers = false
	conn.SyncQuotes = false
	conn.SyncSubscriptions = false
	require.NoError(t, store.Connections().Update(ctx, conn))

	results := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	require.Len(t, results, 1)
	assert.NotContains(t, results, billingsync.EntityKindCustomer)

	linked, err := store.Invoices().FindByRemoteID(ctx, conn.ID, "10")
	require.NoError(t, err)
	assert.Equal(t, "Acme", linked.CustomerName)
	assert.Equal(t, "1", linked.CustomerRemoteID)

	// No stored customer: the name stays empty, the remote id is preserved.
	unlinked, err := store.Invoices().FindByRemoteID(ctx, conn.ID, "11")
	require.NoError(t, err)
	assert.Equal(t, "", unlinked.CustomerName)
	assert.Equal(t, "9", unlinked.CustomerRemoteID)
}

// ---------------------------------------------------------------------------
// Status aggregation
// ---------------------------------------------------------------------------

func TestOrchestrator_PartialStatusWithJoinedErrors(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customers", []map[string]any{customerItem(1, "Acme")})
	api.setPages("/customer_invoices", []map[string]any{
		{"id": 10, "invoice_number": "F-001", "customer": map[string]any{"id": 1}},
		{"invoice_number": "F-BROKEN"},
	})
	api.setPages("/quotes")
	api.setPages("/billing_subscriptions")

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	results := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	assert.True(t, results[billingsync.EntityKindCustomer].Success)
	assert.False(t, results[billingsync.EntityKindInvoice].Success)

	updated, err := store.Connections().FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, billingsync.SyncStatusPartial, updated.LastSyncStatus)
	assert.Contains(t, updated.LastSyncError, "missing id")
}

// lookupFailStore hands out a customer repository whose name lookup always
// fails while everything else hits the real store.
type lookupFailStore struct {
	billingsync.Store
}

func (s lookupFailStore) Customers() billingsync.RemoteCustomerRepository {
	return lookupFailCustomerRepo{s.Store.Customers()}
}

type lookupFailCustomerRepo struct {
	billingsync.RemoteCustomerRepository
}

func (r lookupFailCustomerRepo) NamesByConnection(context.Context, uuid.UUID) (map[string]string, error) {
	return nil, assert.AnError
}

func TestOrchestrator_NameLookupFailureMarksRunPartial(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customers", []map[string]any{customerItem(1, "Acme")})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	results := NewOrchestrator(newEngineClient(t, api.srv.URL), lookupFailStore{store}, zap.NewNop()).SyncAll(ctx, conn)

	// Customers landed cleanly, but the run aborted before the dependent
	// kinds were attempted: that is not a full success.
	require.Contains(t, results, billingsync.EntityKindCustomer)
	assert.True(t, results[billingsync.EntityKindCustomer].Success)
	assert.Equal(t, 0, api.requestCount("/customer_invoices"))

	updated, err := store.Connections().FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, billingsync.SyncStatusPartial, updated.LastSyncStatus)
	assert.Contains(t, updated.LastSyncError, "loading customer name lookup")
}

// ---------------------------------------------------------------------------
// Auth failure aborts the run before any kind
// ---------------------------------------------------------------------------

func TestOrchestrator_AuthFailureAbortsRun(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.failPath("/customers", http.StatusUnauthorized)

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	results := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	assert.Empty(t, results)
	assert.Equal(t, 1, api.requestCount("/customers"))
	assert.Equal(t, 0, api.requestCount("/customer_invoices"))

	updated, err := store.Connections().FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, billingsync.SyncStatusFailed, updated.LastSyncStatus)
	assert.NotEmpty(t, updated.LastSyncError)
}

// ---------------------------------------------------------------------------
// Client error aborts the remaining kinds
// ---------------------------------------------------------------------------

func TestOrchestrator_ClientErrorStopsRemainingKinds(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customers", []map[string]any{customerItem(1, "Acme")})
	api.failPath("/customer_invoices", http.StatusInternalServerError)

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()

	results := NewOrchestrator(newEngineClient(t, api.srv.URL), store, zap.NewNop()).SyncAll(ctx, conn)

	require.Contains(t, results, billingsync.EntityKindCustomer)
	require.Contains(t, results, billingsync.EntityKindInvoice)
	assert.False(t, results[billingsync.EntityKindInvoice].Success)
	assert.NotContains(t, results, billingsync.EntityKindQuote)
	assert.NotContains(t, results, billingsync.EntityKindSubscription)

	assert.Equal(t, 0, api.requestCount("/quotes"))
	assert.Equal(t, 0, api.requestCount("/billing_subscriptions"))

	updated, err := store.Connections().FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, billingsync.SyncStatusPartial, updated.LastSyncStatus)
	assert.Contains(t, updated.LastSyncError, "API error")
}

// ---------------------------------------------------------------------------
// Field mapping through a full run
// ---------------------------------------------------------------------------

func TestSyncKind_CustomerFieldMapping(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customers", []map[string]any{{
		"id":           1,
		"company_name": "Acme SARL",
		"emails":       []string{"billing@acme.fr"},
		"billing_address": map[string]any{
			"address":        "1 rue de la Paix",
			"city":           "Paris",
			"postal_code":    "75002",
			"country_alpha2": "FR",
		},
		"delivery_address": map[string]any{
			"address":        "Quai des Docks",
			"city":           "Le Havre",
			"postal_code":    "76600",
			"country_alpha2": "FR",
		},
		"city":       "IGNORED",
		"vat_number": "FR123456789",
		"created_at": "2024-01-10T08:00:00Z",
	}})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")

	_, err := syncKind(context.Background(), newEngineClient(t, api.srv.URL), store, conn.ID, customerSyncer{})
	require.NoError(t, err)

	cust, err := store.Customers().FindByRemoteID(context.Background(), conn.ID, "1")
	require.NoError(t, err)

	assert.Equal(t, "Acme SARL", cust.Name)
	assert.Equal(t, "company", cust.CustomerType)
	assert.Equal(t, "billing@acme.fr", cust.Email)
	// Nested billing_address wins over root keys.
	assert.Equal(t, "Paris", cust.City)
	assert.Equal(t, "75002", cust.PostalCode)
	assert.Equal(t, "FR", cust.CountryCode)
	// Delivery stays separate from billing.
	assert.Equal(t, "Le Havre", cust.DeliveryCity)
	assert.Equal(t, "FR123456789", cust.VATNumber)
	require.NotNil(t, cust.RemoteCreatedAt)
	assert.NotEmpty(t, cust.RawData)
}

func TestSyncKind_InvoiceFieldMapping(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customer_invoices", []map[string]any{{
		"id":       10,
		"label":    "Facture mars",
		"status":   "paid",
		"total":    "1500.00",
		"date":     "2025-03-01",
		"deadline": "2025-03-31",
		"file_url": "https://files.example.com/f.pdf",
		"customer": map[string]any{"id": 1},
	}})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")

	_, err := syncKind(context.Background(), newEngineClient(t, api.srv.URL), store, conn.ID,
		invoiceSyncer{nameLookup: map[string]string{"1": "Acme"}})
	require.NoError(t, err)

	inv, err := store.Invoices().FindByRemoteID(context.Background(), conn.ID, "10")
	require.NoError(t, err)

	// invoice_number absent: label is the fallback.
	assert.Equal(t, "Facture mars", inv.InvoiceNumber)
	require.NotNil(t, inv.Amount)
	assert.Equal(t, "1500", inv.Amount.String())
	assert.Equal(t, "EUR", inv.Currency)
	require.NotNil(t, inv.IssueDate)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, "https://files.example.com/f.pdf", inv.PDFURL)
	assert.Equal(t, "Acme", inv.CustomerName)
}

func TestSyncKind_InvoiceUpdatePreservesContractLink(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/customer_invoices", []map[string]any{{
		"id": 10, "invoice_number": "F-001", "customer": map[string]any{"id": 1},
	}})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")
	ctx := context.Background()
	client := newEngineClient(t, api.srv.URL)

	_, err := syncKind(ctx, client, store, conn.ID, invoiceSyncer{nameLookup: map[string]string{}})
	require.NoError(t, err)

	inv, err := store.Invoices().FindByRemoteID(ctx, conn.ID, "10")
	require.NoError(t, err)
	contractID := uuid.New()
	require.NoError(t, store.Invoices().SetContractLink(ctx, inv.ID, &contractID, false))

	// Re-sync: the remote payload knows nothing about contracts; the local
	// linkage must survive the update.
	_, err = syncKind(ctx, client, store, conn.ID, invoiceSyncer{nameLookup: map[string]string{}})
	require.NoError(t, err)

	inv, err = store.Invoices().FindByRemoteID(ctx, conn.ID, "10")
	require.NoError(t, err)
	require.NotNil(t, inv.ContractID)
	assert.Equal(t, contractID, *inv.ContractID)
}

func TestSyncKind_SubscriptionFieldMapping(t *testing.T) {
	api := newFakeBillingAPI(t)
	api.setPages("/billing_subscriptions", []map[string]any{{
		"id":     20,
		"status": "active",
		"amount": "999.99",
		"customer_invoice_data": map[string]any{
			"amount":   "49.90",
			"currency": "USD",
		},
		"recurring_rule":  map[string]any{"rule_type": "monthly"},
		"start":           "2025-01-01",
		"next_occurrence": "2025-09-01",
		"customer":        map[string]any{"id": 1},
	}})

	store := newEngineStore(t)
	conn := newEngineConnection(t, store, "acme")

	_, err := syncKind(context.Background(), newEngineClient(t, api.srv.URL), store, conn.ID,
		newSubscriptionSyncer(map[string]string{"1": "Acme"}))
	require.NoError(t, err)

	sub, err := store.Subscriptions().FindByRemoteID(context.Background(), conn.ID, "20")
	require.NoError(t, err)

	// Nested customer_invoice_data takes precedence over the root amount.
	require.NotNil(t, sub.Amount)
	assert.Equal(t, "49.9", sub.Amount.String())
	assert.Equal(t, "USD", sub.Currency)
	assert.Equal(t, "monthly", sub.BillingInterval)
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.NextBillingDate)
	assert.Nil(t, sub.CancelledAt)
	assert.Equal(t, "Acme", sub.CustomerName)
}
