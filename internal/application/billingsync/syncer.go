// Package billingsync implements the synchronization engine that mirrors
// customers, invoices, quotes and subscriptions from the remote billing
// provider into local tables, one connection at a time.
package billingsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/domain/shared"
	"github.com/partnerhub/backend/internal/infrastructure/logger"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// RemoteClient is the slice of the pennylane client the sync engine consumes.
// *pennylane.Client satisfies it; tests back it with httptest servers.
type RemoteClient interface {
	Pages(path string) *pennylane.RecordIterator
	TestConnection(ctx context.Context) (*pennylane.CompanyProfile, error)
}

// entitySyncer maps one remote entity kind onto its local table. The shared
// traversal in syncKind drives pagination, id extraction and counting; the
// syncer only knows its endpoint and field mapping.
type entitySyncer interface {
	Kind() billingsync.EntityKind
	Path() string
	// RemoteID extracts the remote identifier; empty means the record is
	// unprocessable and is recorded as a per-record error.
	RemoteID(rec record) string
	// Upsert maps the record and creates or updates the mirrored row.
	Upsert(ctx context.Context, tx billingsync.Store, connectionID uuid.UUID, remoteID string, rec record, raw json.RawMessage, syncedAt time.Time) (created bool, err error)
}

// maxErrorPayloadLen caps how much of a malformed payload is quoted in a
// per-record error message.
const maxErrorPayloadLen = 256

func truncatePayload(raw json.RawMessage) string {
	s := string(raw)
	if len(s) > maxErrorPayloadLen {
		return s[:maxErrorPayloadLen] + "..."
	}
	return s
}

// syncKind walks every page of the syncer's endpoint and upserts record by
// record. All writes of the kind share one transaction and commit together
// after the full traversal; a page-fetch failure rolls the kind back and the
// client error is returned alongside the result that records it. Per-record
// failures are recorded and the traversal continues.
func syncKind(ctx context.Context, client RemoteClient, store billingsync.Store, connectionID uuid.UUID, s entitySyncer) (*billingsync.SyncResult, error) {
	result := billingsync.NewSyncResult(s.Kind())
	syncedAt := time.Now()
	log := logger.L(ctx)

	err := store.WithinTransaction(ctx, func(tx billingsync.Store) error {
		it := client.Pages(s.Path())
		for {
			raw, ok, err := it.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			result.TotalFetched++

			rec, err := parseRecord(raw)
			if err != nil {
				result.AddError(fmt.Sprintf("malformed %s payload: %v", s.Kind(), err))
				continue
			}

			remoteID := s.RemoteID(rec)
			if remoteID == "" {
				result.AddError(fmt.Sprintf("%s missing id: %s", s.Kind(), truncatePayload(raw)))
				continue
			}

			created, err := s.Upsert(ctx, tx, connectionID, remoteID, rec, raw, syncedAt)
			if err != nil {
				result.AddError(fmt.Sprintf("error processing %s %s: %v", s.Kind(), remoteID, err))
				log.Warn("record upsert failed",
					zap.String("kind", s.Kind().String()),
					zap.String("remote_id", remoteID),
					zap.Error(err),
				)
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
	})
	if err != nil {
		result.AddError(fmt.Sprintf("API error during %s sync: %v", s.Kind(), err))
		return result, err
	}
	return result, nil
}

// notFoundOK turns an expected lookup miss into nil so upserts can branch on
// the returned entity alone.
func notFoundOK(err error) error {
	if err == nil || err == shared.ErrNotFound {
		return nil
	}
	return err
}
