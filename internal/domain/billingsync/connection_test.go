package billingsync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnection(t *testing.T) {
	conn, err := NewConnection("acme-production", "tok_secret")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, conn.ID)
	assert.Equal(t, "acme-production", conn.Name)
	assert.True(t, conn.IsActive)
	assert.True(t, conn.SyncCustomers)
	assert.True(t, conn.SyncInvoices)
	assert.True(t, conn.SyncQuotes)
	assert.True(t, conn.SyncSubscriptions)
	assert.Nil(t, conn.LastSyncAt)
}

func TestNewConnection_Validation(t *testing.T) {
	tests := []struct {
		name     string
		connName string
		token    string
		field    string
	}{
		{"empty name", "", "tok", "name"},
		{"blank name", "   ", "tok", "name"},
		{"empty token", "acme", "", "api_token"},
		{"blank token", "acme", "  ", "api_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnection(tt.connName, tt.token)
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestConnection_EnabledKinds(t *testing.T) {
	conn, err := NewConnection("acme", "tok")
	require.NoError(t, err)

	assert.Equal(t, AllEntityKinds(), conn.EnabledKinds())

	conn.SyncCustomers = false
	conn.SyncQuotes = false
	assert.Equal(t, []EntityKind{EntityKindInvoice, EntityKindSubscription}, conn.EnabledKinds())

	conn.SyncInvoices = false
	conn.SyncSubscriptions = false
	assert.Empty(t, conn.EnabledKinds())
}

func TestConnection_KindEnabled_UnknownKind(t *testing.T) {
	conn, err := NewConnection("acme", "tok")
	require.NoError(t, err)
	assert.False(t, conn.KindEnabled(EntityKind("payments")))
}

func TestConnection_RecordSyncOutcome(t *testing.T) {
	conn, err := NewConnection("acme", "tok")
	require.NoError(t, err)

	at := time.Now()
	conn.RecordSyncOutcome(at, SyncStatusPartial, "invoice 42: bad amount")

	require.NotNil(t, conn.LastSyncAt)
	assert.Equal(t, at, *conn.LastSyncAt)
	assert.Equal(t, SyncStatusPartial, conn.LastSyncStatus)
	assert.Equal(t, "invoice 42: bad amount", conn.LastSyncError)
}

func TestEntityKind_IsValid(t *testing.T) {
	for _, kind := range AllEntityKinds() {
		assert.True(t, kind.IsValid(), kind.String())
	}
	assert.False(t, EntityKind("orders").IsValid())
}

func TestSyncStatus_IsValid(t *testing.T) {
	assert.True(t, SyncStatusSuccess.IsValid())
	assert.True(t, SyncStatusPartial.IsValid())
	assert.True(t, SyncStatusFailed.IsValid())
	assert.False(t, SyncStatus("pending").IsValid())
}
