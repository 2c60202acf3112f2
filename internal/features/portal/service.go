package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "estia-crm/internal/common/models"
	"estia-crm/internal/features/audit"
	"estia-crm/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type SyncService interface {
	GetConfig(ctx context.Context, tenantID primitive.ObjectID) (*IntegrationConfig, error)
	SaveConfig(ctx context.Context, cfg *IntegrationConfig) error
	DeleteConfig(ctx context.Context, tenantID primitive.ObjectID) error

	SubmitSync(ctx context.Context, tenantID, userID primitive.ObjectID, propertyIDs []primitive.ObjectID, op RequestType) (*SubmitResult, error)
	Reconcile(ctx context.Context, tenantID primitive.ObjectID, packageID primitive.ObjectID) (*PackageDetail, error)
	ReconcilePending(ctx context.Context)
	Retry(ctx context.Context, tenantID, userID primitive.ObjectID, packageID primitive.ObjectID) (*SubmitResult, error)

	ListHistory(ctx context.Context, tenantID primitive.ObjectID, filter HistoryFilter) (*HistoryPage, error)
	GetDetail(ctx context.Context, tenantID primitive.ObjectID, packageID primitive.ObjectID) (*PackageDetail, error)
	GetStats(ctx context.Context, tenantID primitive.ObjectID) (*SyncStats, error)

	AutoPublish(ctx context.Context, tenantID, propertyID primitive.ObjectID)
}

type SyncServiceImpl struct {
	ConfigRepo    ConfigRepository
	PackageRepo   PackageRepository
	Builder       *PackageBuilder
	Client        PortalClient
	Properties    PropertyReader
	Notifications notification.NotificationService
	AuditService  audit.AuditService
	Logger        *zap.Logger
	locks         *propertyLocks
}

func NewSyncService(
	configRepo ConfigRepository,
	packageRepo PackageRepository,
	builder *PackageBuilder,
	client PortalClient,
	properties PropertyReader,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	logger *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		ConfigRepo:    configRepo,
		PackageRepo:   packageRepo,
		Builder:       builder,
		Client:        client,
		Properties:    properties,
		Notifications: notifications,
		AuditService:  auditService,
		Logger:        logger,
		locks:         newPropertyLocks(),
	}
}

func (s *SyncServiceImpl) GetConfig(ctx context.Context, tenantID primitive.ObjectID) (*IntegrationConfig, error) {
	cfg, err := s.ConfigRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &NotFoundError{Resource: "portal config", ID: tenantID.Hex()}
	}
	return cfg, nil
}

func (s *SyncServiceImpl) SaveConfig(ctx context.Context, cfg *IntegrationConfig) error {
	if cfg.Username == "" && cfg.AuthToken == "" {
		return &ValidationError{Msg: "either username/password or auth token is required"}
	}
	if cfg.StoreID == "" {
		return &ValidationError{Msg: "store_id is required"}
	}
	if cfg.PublicationType == "" {
		cfg.PublicationType = PublicationBasic
	}
	if cfg.PublicationType != PublicationBasic && cfg.PublicationType != PublicationGold {
		return &ValidationError{Msg: fmt.Sprintf("unknown publication type: %s", cfg.PublicationType)}
	}

	// Keep the stored secrets when the caller omits them on update.
	existing, err := s.ConfigRepo.GetByTenant(ctx, cfg.TenantID)
	if err != nil {
		return err
	}
	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		if cfg.Password == "" {
			cfg.Password = existing.Password
		}
		if cfg.AuthToken == "" {
			cfg.AuthToken = existing.AuthToken
		}
	}

	if err := s.ConfigRepo.Upsert(ctx, cfg); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionSettings, "portal", cfg.TenantID.Hex(), map[string]common_models.Change{
		"config": {New: cfg},
	})
	return nil
}

func (s *SyncServiceImpl) DeleteConfig(ctx context.Context, tenantID primitive.ObjectID) error {
	existing, err := s.ConfigRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if existing == nil {
		return &NotFoundError{Resource: "portal config", ID: tenantID.Hex()}
	}
	if err := s.ConfigRepo.Delete(ctx, tenantID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "portal", tenantID.Hex(), map[string]common_models.Change{
		"config": {Old: existing},
	})
	return nil
}

// SubmitSync builds a package for the given properties, sends it to xe.gr
// and persists the outcome. Transport failures do not surface as errors:
// they produce a FAILED package with the cause recorded, and no property is
// mutated in that case.
func (s *SyncServiceImpl) SubmitSync(ctx context.Context, tenantID, userID primitive.ObjectID, propertyIDs []primitive.ObjectID, op RequestType) (*SubmitResult, error) {
	cfg, err := s.ConfigRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &ValidationError{Msg: "xe.gr integration is not configured for this tenant"}
	}

	// A duplicated id would produce duplicate item rows for one property.
	seen := make(map[primitive.ObjectID]struct{}, len(propertyIDs))
	unique := make([]primitive.ObjectID, 0, len(propertyIDs))
	for _, id := range propertyIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	propertyIDs = unique

	keys := make([]string, len(propertyIDs))
	for i, id := range propertyIDs {
		keys[i] = id.Hex()
	}
	unlock := s.locks.LockAll(keys)
	defer unlock()

	built, err := s.Builder.Build(ctx, tenantID, propertyIDs, op, cfg)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, cfg, built, userID)
}

func (s *SyncServiceImpl) submit(ctx context.Context, cfg *IntegrationConfig, built *BuiltPackage, userID primitive.ObjectID) (*SubmitResult, error) {
	now := time.Now()
	pkg := &SyncPackage{
		ID:          built.PackageID,
		TenantID:    built.TenantID,
		SubmittedBy: userID,
		RequestType: built.RequestType,
		TotalItems:  len(built.Items),
		SubmittedAt: now,
	}

	items := make([]SyncItem, len(built.Items))
	for i, bi := range built.Items {
		items[i] = SyncItem{
			ID:           primitive.NewObjectID(),
			PackageID:    pkg.ID,
			TenantID:     pkg.TenantID,
			PropertyID:   bi.PropertyID,
			PropertyName: bi.PropertyName,
			XERefID:      bi.XERefID, // the listing a removal targets
			Status:       ItemStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if bi.Failed {
			items[i].Status = ItemStatusFailed
			items[i].Error = bi.FailReason
		}
	}

	entries := make([]BulkEntry, 0, len(built.Items))
	for _, bi := range built.Items {
		if bi.Failed {
			continue
		}
		entries = append(entries, BulkEntry{
			ItemRef: bi.PropertyID.Hex(),
			RefID:   bi.XERefID,
			Listing: bi.Listing,
		})
	}

	if len(entries) == 0 {
		// Every item pre-failed; the portal is never contacted.
		s.finalize(pkg, items, now)
		updates := s.propertyUpdates(pkg, items, now)
		if err := s.PackageRepo.SaveSubmission(ctx, pkg, items, updates); err != nil {
			return nil, err
		}
		s.notifyTerminal(ctx, pkg)
		return &SubmitResult{Package: *pkg, Items: items}, nil
	}

	resp, err := s.Client.SubmitBulk(ctx, cfg, &BulkRequest{
		StoreID:   cfg.StoreID,
		Operation: built.RequestType,
		Entries:   entries,
	})
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			return nil, err
		}
		s.Logger.Warn("portal submission failed",
			zap.String("tenant_id", pkg.TenantID.Hex()),
			zap.String("package_id", pkg.ID.Hex()),
			zap.Error(te))

		pkg.Status = PackageStatusFailed
		pkg.ErrorMessage = te.Error()
		pkg.FailureCount = len(items)
		completed := time.Now()
		pkg.CompletedAt = &completed
		for i := range items {
			items[i].Status = ItemStatusFailed
			if items[i].Error == "" {
				items[i].Error = "portal unreachable"
			}
		}
		// No property mutation on transport failure: publication state is
		// unknown on the portal side, so nothing is assumed.
		if err := s.PackageRepo.SaveSubmission(ctx, pkg, items, nil); err != nil {
			return nil, err
		}
		s.notifyTerminal(ctx, pkg)
		return &SubmitResult{Package: *pkg, Items: items}, nil
	}

	if resp.Async {
		pkg.Status = PackageStatusProcessing
		pkg.AckID = resp.AckID
		updates := s.propertyUpdates(pkg, items, now)
		if err := s.PackageRepo.SaveSubmission(ctx, pkg, items, updates); err != nil {
			return nil, err
		}
		return &SubmitResult{Package: *pkg, Items: items}, nil
	}

	s.applyResults(items, resp.Results, pkg.RequestType)
	s.finalize(pkg, items, now)
	updates := s.propertyUpdates(pkg, items, now)
	if err := s.PackageRepo.SaveSubmission(ctx, pkg, items, updates); err != nil {
		return nil, err
	}
	s.notifyTerminal(ctx, pkg)
	return &SubmitResult{Package: *pkg, Items: items}, nil
}

// applyResults resolves portal per-item outcomes onto the pending items.
// Items the portal did not mention stay FAILED with an explicit reason.
func (s *SyncServiceImpl) applyResults(items []SyncItem, results []ItemResult, op RequestType) {
	byRef := make(map[string]ItemResult, len(results))
	for _, r := range results {
		byRef[r.ItemRef] = r
	}

	for i := range items {
		if items[i].Status != ItemStatusPending {
			continue
		}
		r, ok := byRef[items[i].PropertyID.Hex()]
		if !ok {
			items[i].Status = ItemStatusFailed
			items[i].Error = "no result returned by portal"
			continue
		}
		if !r.Accepted {
			items[i].Status = ItemStatusFailed
			items[i].Error = r.Reason
			if items[i].Error == "" {
				items[i].Error = "rejected by portal"
			}
			continue
		}
		items[i].Status = ItemStatusSuccess
		if op == RequestTypeAddItems {
			items[i].XERefID = r.RefID
		}
	}
}

// finalize computes counts and the terminal package status. A package with
// at least one successful item is SUCCESS; all-failed packages are FAILED.
func (s *SyncServiceImpl) finalize(pkg *SyncPackage, items []SyncItem, now time.Time) {
	pkg.SuccessCount = 0
	pkg.FailureCount = 0
	for i := range items {
		switch items[i].Status {
		case ItemStatusSuccess:
			pkg.SuccessCount++
		case ItemStatusFailed:
			pkg.FailureCount++
		}
		items[i].UpdatedAt = now
	}

	if pkg.SuccessCount > 0 {
		pkg.Status = PackageStatusSuccess
	} else {
		pkg.Status = PackageStatusFailed
		if pkg.ErrorMessage == "" {
			pkg.ErrorMessage = "all items failed"
		}
	}

	pkg.CompletedAt = &now
}

// propertyUpdates maps finalized items to property mutations. Failed items
// only record the attempt; successful ADDs publish and store the ref id,
// successful REMOVEs unpublish and clear it.
func (s *SyncServiceImpl) propertyUpdates(pkg *SyncPackage, items []SyncItem, now time.Time) []PublicationUpdate {
	updates := make([]PublicationUpdate, 0, len(items))
	for _, item := range items {
		u := PublicationUpdate{
			PropertyID:     item.PropertyID,
			LastSyncAt:     now,
			LastSyncStatus: item.Status,
			LastPackageID:  pkg.ID,
		}
		if item.Status == ItemStatusSuccess {
			published := pkg.RequestType == RequestTypeAddItems
			u.SetPublished = &published
			u.SetRefID = true
			if published {
				u.RefID = item.XERefID
			}
		}
		updates = append(updates, u)
	}
	return updates
}

// Reconcile polls the portal for a PROCESSING package. Calling it on a
// terminal package is a no-op returning the stored state, so repeated polls
// and the cron sweep cannot double-apply an outcome.
func (s *SyncServiceImpl) Reconcile(ctx context.Context, tenantID primitive.ObjectID, packageID primitive.ObjectID) (*PackageDetail, error) {
	pkg, err := s.PackageRepo.Get(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	items, err := s.PackageRepo.ListItems(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	if pkg.Status.Terminal() {
		return &PackageDetail{Package: *pkg, Items: items}, nil
	}

	// Hold the same per-property locks as SubmitSync so a sweep resolving
	// an async package cannot interleave its publication writes with a
	// concurrent submission for the same properties.
	keys := make([]string, len(items))
	for i := range items {
		keys[i] = items[i].PropertyID.Hex()
	}
	unlock := s.locks.LockAll(keys)
	defer unlock()

	// Re-read under the lock: a concurrent sweep or manual reconcile may
	// have resolved the package while this one waited.
	pkg, err = s.PackageRepo.Get(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.Status.Terminal() {
		items, err = s.PackageRepo.ListItems(ctx, pkg.ID)
		if err != nil {
			return nil, err
		}
		return &PackageDetail{Package: *pkg, Items: items}, nil
	}

	cfg, err := s.ConfigRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &ValidationError{Msg: "xe.gr integration is not configured for this tenant"}
	}

	resp, err := s.Client.CheckStatus(ctx, cfg, pkg.AckID)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			// Portal unreachable: the package stays PROCESSING and the next
			// sweep tries again.
			s.Logger.Warn("portal status check failed",
				zap.String("package_id", pkg.ID.Hex()),
				zap.Error(te))
			return &PackageDetail{Package: *pkg, Items: items}, nil
		}
		return nil, err
	}
	if !resp.Complete {
		return &PackageDetail{Package: *pkg, Items: items}, nil
	}

	now := time.Now()
	s.applyResults(items, resp.Results, pkg.RequestType)
	s.finalize(pkg, items, now)
	updates := s.propertyUpdates(pkg, items, now)
	if err := s.PackageRepo.SaveReconciliation(ctx, pkg, items, updates); err != nil {
		return nil, err
	}
	s.notifyTerminal(ctx, pkg)

	return &PackageDetail{Package: *pkg, Items: items}, nil
}

// ReconcilePending is the cron sweep over every tenant's in-flight packages.
func (s *SyncServiceImpl) ReconcilePending(ctx context.Context) {
	pending, err := s.PackageRepo.ListProcessing(ctx)
	if err != nil {
		s.Logger.Error("listing in-flight packages failed", zap.Error(err))
		return
	}
	for _, pkg := range pending {
		if _, err := s.Reconcile(ctx, pkg.TenantID, pkg.ID); err != nil {
			s.Logger.Warn("reconciliation failed",
				zap.String("tenant_id", pkg.TenantID.Hex()),
				zap.String("package_id", pkg.ID.Hex()),
				zap.Error(err))
		}
	}
}

// Retry resubmits a FAILED package's properties as a fresh package. The
// failed package itself is never mutated; properties are re-read so the new
// submission reflects their current state.
func (s *SyncServiceImpl) Retry(ctx context.Context, tenantID, userID primitive.ObjectID, packageID primitive.ObjectID) (*SubmitResult, error) {
	pkg, err := s.PackageRepo.Get(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	if pkg.Status != PackageStatusFailed {
		return nil, &InvalidStateError{Msg: fmt.Sprintf("only FAILED packages can be retried, package is %s", pkg.Status)}
	}

	items, err := s.PackageRepo.ListItems(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	propertyIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		propertyIDs = append(propertyIDs, item.PropertyID)
	}

	result, err := s.SubmitSync(ctx, tenantID, userID, propertyIDs, pkg.RequestType)
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionSync, "portal", result.Package.ID.Hex(), map[string]common_models.Change{
		"retry_of": {Old: pkg.ID.Hex(), New: result.Package.ID.Hex()},
	})
	return result, nil
}

func (s *SyncServiceImpl) ListHistory(ctx context.Context, tenantID primitive.ObjectID, filter HistoryFilter) (*HistoryPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	packages, total, err := s.PackageRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{
		Items:   packages,
		Total:   total,
		HasMore: filter.Offset+int64(len(packages)) < total,
	}, nil
}

func (s *SyncServiceImpl) GetDetail(ctx context.Context, tenantID primitive.ObjectID, packageID primitive.ObjectID) (*PackageDetail, error) {
	pkg, err := s.PackageRepo.Get(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	items, err := s.PackageRepo.ListItems(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	return &PackageDetail{Package: *pkg, Items: items}, nil
}

func (s *SyncServiceImpl) GetStats(ctx context.Context, tenantID primitive.ObjectID) (*SyncStats, error) {
	counts, err := s.PackageRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &SyncStats{
		SuccessfulSyncs: counts[PackageStatusSuccess],
		FailedSyncs:     counts[PackageStatusFailed],
		PendingSyncs:    counts[PackageStatusPending] + counts[PackageStatusProcessing],
	}
	stats.TotalSyncs = stats.SuccessfulSyncs + stats.FailedSyncs + stats.PendingSyncs

	if stats.TotalSyncs > 0 {
		stats.SuccessRate = float64(stats.SuccessfulSyncs) / float64(stats.TotalSyncs)
	}

	published, err := s.Properties.CountPublished(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats.TotalPropertiesSynced = published

	last, err := s.PackageRepo.LatestSubmittedAt(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats.LastSyncAt = last

	return stats, nil
}

// AutoPublish is fired by the property service when a publishable property
// is created under a tenant whose config enables auto publishing. It is
// best effort; failures are logged and surface in sync history, never to
// the property write.
func (s *SyncServiceImpl) AutoPublish(ctx context.Context, tenantID, propertyID primitive.ObjectID) {
	cfg, err := s.ConfigRepo.GetByTenant(ctx, tenantID)
	if err != nil || cfg == nil || !cfg.IsActive || !cfg.AutoPublish {
		return
	}

	if _, err := s.SubmitSync(ctx, tenantID, primitive.NilObjectID, []primitive.ObjectID{propertyID}, RequestTypeAddItems); err != nil {
		s.Logger.Warn("auto publish failed",
			zap.String("tenant_id", tenantID.Hex()),
			zap.String("property_id", propertyID.Hex()),
			zap.Error(err))
	}
}

func (s *SyncServiceImpl) notifyTerminal(ctx context.Context, pkg *SyncPackage) {
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionSync, "portal", pkg.ID.Hex(), map[string]common_models.Change{
		"status": {New: string(pkg.Status)},
	})

	if pkg.SubmittedBy.IsZero() {
		return
	}

	notifType := notification.NotificationTypeSuccess
	title := "xe.gr sync completed"
	message := fmt.Sprintf("%d of %d properties synced", pkg.SuccessCount, pkg.TotalItems)
	if pkg.Status == PackageStatusFailed {
		notifType = notification.NotificationTypeError
		title = "xe.gr sync failed"
		message = pkg.ErrorMessage
	}

	_ = s.Notifications.CreateNotification(ctx, pkg.TenantID, pkg.SubmittedBy, title, message, notifType, "/portal/packages/"+pkg.ID.Hex())
}
