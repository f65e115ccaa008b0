package billingsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/logger"
)

// Orchestrator runs every enabled entity kind of one connection in dependency
// order and stamps the aggregate outcome onto the connection. It is built per
// run: the client it carries is scoped to a single connection.
type Orchestrator struct {
	client RemoteClient
	store  billingsync.Store
	logger *zap.Logger
}

// NewOrchestrator creates an orchestrator for one connection run.
func NewOrchestrator(client RemoteClient, store billingsync.Store, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		store:  store,
		logger: logger,
	}
}

// SyncAll syncs all enabled entity kinds. Customers come first so the
// id-to-name lookup the dependent kinds receive is as fresh as possible;
// the lookup is then built from ALL stored customers of the connection, which
// keeps name resolution working when customer sync is disabled or partially
// failed. Disabled kinds are absent from the returned map.
//
// The connection's last-sync fields are updated exactly once, whatever
// happens: client-level errors, an unreachable store, even a panic mid-run.
func (o *Orchestrator) SyncAll(ctx context.Context, conn *billingsync.Connection) map[billingsync.EntityKind]*billingsync.SyncResult {
	results := make(map[billingsync.EntityKind]*billingsync.SyncResult)
	var abortErr error

	ctx, span := otel.Tracer("billingsync").Start(ctx, "sync.connection")
	defer span.End()
	span.SetAttributes(attribute.String("connection.name", conn.Name))
	o.logger = logger.WithTraceContext(ctx, o.logger)

	o.logger.Info("starting full sync",
		zap.String("connection", conn.Name),
	)

	defer func() {
		if r := recover(); r != nil {
			abortErr = fmt.Errorf("unexpected failure during sync: %v", r)
			o.logger.Error("sync run panicked",
				zap.String("connection", conn.Name),
				zap.Any("panic", r),
			)
		}
		if abortErr != nil {
			span.RecordError(abortErr)
			span.SetStatus(codes.Error, "sync aborted")
		}
		o.recordOutcome(conn, results, abortErr)
	}()

	if conn.KindEnabled(billingsync.EntityKindCustomer) {
		result, err := syncKind(ctx, o.client, o.store, conn.ID, customerSyncer{})
		if err != nil && errors.Is(err, billingsync.ErrAuthFailed) {
			// Bad credentials abort the whole run before any kind counts as
			// attempted; retrying the other kinds cannot succeed either.
			abortErr = err
			return results
		}
		results[billingsync.EntityKindCustomer] = result
		o.logResult(conn, result)
		if err != nil {
			return results
		}
	}

	nameLookup, err := o.store.Customers().NamesByConnection(ctx, conn.ID)
	if err != nil {
		abortErr = fmt.Errorf("loading customer name lookup: %w", err)
		return results
	}

	dependents := []entitySyncer{
		invoiceSyncer{nameLookup: nameLookup},
		quoteSyncer{nameLookup: nameLookup},
		newSubscriptionSyncer(nameLookup),
	}
	for _, s := range dependents {
		if !conn.KindEnabled(s.Kind()) {
			continue
		}
		result, err := syncKind(ctx, o.client, o.store, conn.ID, s)
		if err != nil && errors.Is(err, billingsync.ErrAuthFailed) && len(results) == 0 {
			abortErr = err
			return results
		}
		results[s.Kind()] = result
		o.logResult(conn, result)
		if err != nil {
			// Rate-limit exhaustion and API failures stop the remaining
			// kinds of this run; the recorded result keeps the error text.
			return results
		}
	}

	return results
}

func (o *Orchestrator) logResult(conn *billingsync.Connection, result *billingsync.SyncResult) {
	o.logger.Info("entity sync complete",
		zap.String("connection", conn.Name),
		zap.String("kind", result.EntityKind.String()),
		zap.Int("total_fetched", result.TotalFetched),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)
}

// recordOutcome stamps last_sync_at/status/error in its own scope so a failed
// run never leaves the connection's status stale.
func (o *Orchestrator) recordOutcome(conn *billingsync.Connection, results map[billingsync.EntityKind]*billingsync.SyncResult, abortErr error) {
	status, errText := billingsync.AggregateOutcome(results)
	if abortErr != nil {
		// The run ended before every enabled kind was attempted, so even a
		// clean sheet of recorded results cannot count as a full success.
		if len(results) == 0 {
			status = billingsync.SyncStatusFailed
		} else if status == billingsync.SyncStatusSuccess {
			status = billingsync.SyncStatusPartial
		}
		if errText != "" {
			errText = errText + "\n" + abortErr.Error()
		} else {
			errText = abortErr.Error()
		}
	}

	now := time.Now()
	conn.RecordSyncOutcome(now, status, errText)

	// Detached context: the run's context may already be cancelled, and the
	// status write must still land.
	updateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.store.Connections().RecordSyncOutcome(updateCtx, conn.ID, now, status, errText); err != nil {
		o.logger.Error("failed to record sync outcome",
			zap.String("connection", conn.Name),
			zap.Error(err),
		)
	}

	o.logger.Info("full sync complete",
		zap.String("connection", conn.Name),
		zap.String("status", status.String()),
		zap.Int("kinds_synced", len(results)),
		zap.Bool("has_errors", strings.TrimSpace(errText) != ""),
	)
}
