package billingsync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
	"github.com/partnerhub/backend/internal/infrastructure/config"
	"github.com/partnerhub/backend/internal/infrastructure/logger"
	"github.com/partnerhub/backend/internal/infrastructure/pennylane"
)

// ClientFactory builds a remote client for one connection. Each run gets a
// fresh client so rate-limit and backoff state never leaks between
// connections or ticks.
type ClientFactory func(conn *billingsync.Connection) (RemoteClient, error)

// SyncService is the application entry point for the sync engine: the
// scheduler drives SyncActiveConnections, the management API drives the
// on-demand operations.
type SyncService struct {
	store     billingsync.Store
	newClient ClientFactory
	logger    *zap.Logger
}

// NewSyncService creates a SyncService whose clients are configured from the
// billing section of the app config.
func NewSyncService(store billingsync.Store, billingCfg config.BillingConfig, logger *zap.Logger) *SyncService {
	factory := func(conn *billingsync.Connection) (RemoteClient, error) {
		cfg := pennylane.NewConfig(conn.APIToken)
		cfg.BaseURL = billingCfg.BaseURL
		cfg.Timeout = billingCfg.HTTPTimeout
		cfg.PerPage = billingCfg.PerPage
		cfg.MaxRetries = billingCfg.MaxRetries
		cfg.RetryBaseDelay = billingCfg.RetryBaseDelay
		return pennylane.NewClient(cfg, logger)
	}
	return &SyncService{
		store:     store,
		newClient: factory,
		logger:    logger,
	}
}

// NewSyncServiceWithFactory creates a SyncService with a caller-supplied
// client factory.
func NewSyncServiceWithFactory(store billingsync.Store, factory ClientFactory, logger *zap.Logger) *SyncService {
	return &SyncService{
		store:     store,
		newClient: factory,
		logger:    logger,
	}
}

// SyncConnection runs a full sync for one connection on demand. It shares the
// orchestrator contract and status-update semantics with the scheduled path.
func (s *SyncService) SyncConnection(ctx context.Context, connectionID uuid.UUID) (map[billingsync.EntityKind]*billingsync.SyncResult, error) {
	conn, err := s.store.Connections().FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive {
		return nil, billingsync.ErrConnectionInactive
	}

	client, err := s.newClient(conn)
	if err != nil {
		return nil, fmt.Errorf("building client for connection %s: %w", conn.Name, err)
	}

	ctx, log := logger.WithConnectionID(ctx, s.logger, conn.ID.String())
	orchestrator := NewOrchestrator(client, s.store, log)
	return orchestrator.SyncAll(ctx, conn), nil
}

// SyncActiveConnections runs every active connection sequentially and returns
// the per-connection result maps keyed by connection name. One connection's
// failure never stops the others.
func (s *SyncService) SyncActiveConnections(ctx context.Context) map[string]map[billingsync.EntityKind]*billingsync.SyncResult {
	results := make(map[string]map[billingsync.EntityKind]*billingsync.SyncResult)

	// All log lines of one pass share a run id for correlation.
	ctx, log := logger.WithSyncRunID(ctx, s.logger, uuid.NewString())

	conns, err := s.store.Connections().FindActive(ctx)
	if err != nil {
		log.Error("failed to load active connections", zap.Error(err))
		return results
	}

	for i := range conns {
		conn := &conns[i]

		client, err := s.newClient(conn)
		if err != nil {
			log.Error("failed to build client, skipping connection",
				zap.String("connection", conn.Name),
				zap.Error(err),
			)
			continue
		}

		connCtx, connLog := logger.WithConnectionID(ctx, log, conn.ID.String())
		orchestrator := NewOrchestrator(client, s.store, connLog)
		results[conn.Name] = orchestrator.SyncAll(connCtx, conn)
	}

	return results
}

// TestConnection probes the remote account-identity endpoint with the
// connection's credentials and, on success, stores the reported company name.
func (s *SyncService) TestConnection(ctx context.Context, connectionID uuid.UUID) (string, error) {
	conn, err := s.store.Connections().FindByID(ctx, connectionID)
	if err != nil {
		return "", err
	}

	client, err := s.newClient(conn)
	if err != nil {
		return "", fmt.Errorf("building client for connection %s: %w", conn.Name, err)
	}

	profile, err := client.TestConnection(ctx)
	if err != nil {
		return "", err
	}

	companyName := profile.CompanyName()
	if companyName != "" && companyName != conn.CompanyName {
		conn.CompanyName = companyName
		if err := s.store.Connections().Update(ctx, conn); err != nil {
			return companyName, fmt.Errorf("storing company name: %w", err)
		}
	}
	return companyName, nil
}

// LinkInvoiceContract applies the tri-state contract linkage to a mirrored
// invoice: a contract id links it, nil with noContract marks it as explicitly
// contract-less, nil without noContract clears the linkage. Linking always
// clears the no-contract flag.
func (s *SyncService) LinkInvoiceContract(ctx context.Context, invoiceID uuid.UUID, contractID *uuid.UUID, noContract bool) error {
	if contractID != nil {
		noContract = false
	}
	return s.store.Invoices().SetContractLink(ctx, invoiceID, contractID, noContract)
}
