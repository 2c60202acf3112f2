package portal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	common_models "estia-crm/internal/common/models"
	"estia-crm/internal/features/notification"
	"estia-crm/internal/features/property"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockConfigRepo struct {
	Config *IntegrationConfig
}

func (m *MockConfigRepo) GetByTenant(ctx context.Context, tenantID primitive.ObjectID) (*IntegrationConfig, error) {
	if m.Config == nil || m.Config.TenantID != tenantID {
		return nil, nil
	}
	return m.Config, nil
}

func (m *MockConfigRepo) Upsert(ctx context.Context, cfg *IntegrationConfig) error {
	m.Config = cfg
	return nil
}

func (m *MockConfigRepo) Delete(ctx context.Context, tenantID primitive.ObjectID) error {
	m.Config = nil
	return nil
}

type MockPackageRepo struct {
	Packages map[primitive.ObjectID]*SyncPackage
	Items    map[primitive.ObjectID][]SyncItem
	Updates  map[primitive.ObjectID][]PublicationUpdate

	SubmissionCount     int
	ReconciliationCount int
}

func NewMockPackageRepo() *MockPackageRepo {
	return &MockPackageRepo{
		Packages: make(map[primitive.ObjectID]*SyncPackage),
		Items:    make(map[primitive.ObjectID][]SyncItem),
		Updates:  make(map[primitive.ObjectID][]PublicationUpdate),
	}
}

func (m *MockPackageRepo) SaveSubmission(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error {
	m.SubmissionCount++
	cp := *pkg
	m.Packages[pkg.ID] = &cp
	m.Items[pkg.ID] = append([]SyncItem(nil), items...)
	m.Updates[pkg.ID] = append([]PublicationUpdate(nil), updates...)
	return nil
}

func (m *MockPackageRepo) SaveReconciliation(ctx context.Context, pkg *SyncPackage, items []SyncItem, updates []PublicationUpdate) error {
	m.ReconciliationCount++
	cp := *pkg
	m.Packages[pkg.ID] = &cp
	m.Items[pkg.ID] = append([]SyncItem(nil), items...)
	m.Updates[pkg.ID] = append([]PublicationUpdate(nil), updates...)
	return nil
}

func (m *MockPackageRepo) Get(ctx context.Context, tenantID primitive.ObjectID, id primitive.ObjectID) (*SyncPackage, error) {
	pkg, ok := m.Packages[id]
	if !ok || pkg.TenantID != tenantID {
		return nil, &NotFoundError{Resource: "package", ID: id.Hex()}
	}
	cp := *pkg
	return &cp, nil
}

func (m *MockPackageRepo) List(ctx context.Context, tenantID primitive.ObjectID, filter HistoryFilter) ([]SyncPackage, int64, error) {
	var out []SyncPackage
	for _, pkg := range m.Packages {
		if pkg.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && pkg.Status != filter.Status {
			continue
		}
		out = append(out, *pkg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})

	total := int64(len(out))
	if filter.Offset >= total {
		out = nil
	} else {
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *MockPackageRepo) ListItems(ctx context.Context, packageID primitive.ObjectID) ([]SyncItem, error) {
	return append([]SyncItem(nil), m.Items[packageID]...), nil
}

func (m *MockPackageRepo) ListProcessing(ctx context.Context) ([]SyncPackage, error) {
	var out []SyncPackage
	for _, pkg := range m.Packages {
		if !pkg.Status.Terminal() {
			out = append(out, *pkg)
		}
	}
	return out, nil
}

func (m *MockPackageRepo) CountByStatus(ctx context.Context, tenantID primitive.ObjectID) (map[PackageStatus]int64, error) {
	counts := make(map[PackageStatus]int64)
	for _, pkg := range m.Packages {
		if pkg.TenantID == tenantID {
			counts[pkg.Status]++
		}
	}
	return counts, nil
}

func (m *MockPackageRepo) LatestSubmittedAt(ctx context.Context, tenantID primitive.ObjectID) (*time.Time, error) {
	var latest *time.Time
	for _, pkg := range m.Packages {
		if pkg.TenantID != tenantID {
			continue
		}
		t := pkg.SubmittedAt
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

type MockPortalClient struct {
	SubmitFn func(req *BulkRequest) (*BulkResponse, error)
	StatusFn func(ackID string) (*StatusResponse, error)

	SubmitCalls int
	StatusCalls int
}

func (m *MockPortalClient) SubmitBulk(ctx context.Context, cfg *IntegrationConfig, req *BulkRequest) (*BulkResponse, error) {
	m.SubmitCalls++
	if m.SubmitFn == nil {
		return &BulkResponse{}, nil
	}
	return m.SubmitFn(req)
}

func (m *MockPortalClient) CheckStatus(ctx context.Context, cfg *IntegrationConfig, ackID string) (*StatusResponse, error) {
	m.StatusCalls++
	if m.StatusFn == nil {
		return &StatusResponse{}, nil
	}
	return m.StatusFn(ackID)
}

type MockNotificationService struct {
	Created int
}

func (m *MockNotificationService) CreateNotification(ctx context.Context, tenantID, userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) error {
	m.Created++
	return nil
}

func (m *MockNotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]notification.Notification, int64, error) {
	return nil, 0, nil
}

func (m *MockNotificationService) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) error {
	return nil
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return nil
}

type MockAuditService struct {
	Logged int
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.Logged++
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type fixture struct {
	service    SyncService
	configRepo *MockConfigRepo
	pkgRepo    *MockPackageRepo
	client     *MockPortalClient
	reader     *MockPropertyReader
	notifs     *MockNotificationService
	tenantID   primitive.ObjectID
	userID     primitive.ObjectID
}

func newFixture(properties ...property.Property) *fixture {
	tenantID := primitive.NewObjectID()
	for i := range properties {
		properties[i].TenantID = tenantID
	}
	reader := &MockPropertyReader{Properties: properties}
	configRepo := &MockConfigRepo{Config: activeConfig(tenantID)}
	pkgRepo := NewMockPackageRepo()
	client := &MockPortalClient{}
	notifs := &MockNotificationService{}

	svc := NewSyncService(
		configRepo,
		pkgRepo,
		NewPackageBuilder(reader, &MockAgentSettings{}),
		client,
		reader,
		notifs,
		&MockAuditService{},
		zap.NewNop(),
	)

	return &fixture{
		service:    svc,
		configRepo: configRepo,
		pkgRepo:    pkgRepo,
		client:     client,
		reader:     reader,
		notifs:     notifs,
		tenantID:   tenantID,
		userID:     primitive.NewObjectID(),
	}
}

func (f *fixture) propertyIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(f.reader.Properties))
	for i := range f.reader.Properties {
		ids[i] = f.reader.Properties[i].ID
	}
	return ids
}

func TestSubmitSyncSynchronousSuccess(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID), validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		results := make([]ItemResult, len(req.Entries))
		for i, e := range req.Entries {
			results[i] = ItemResult{ItemRef: e.ItemRef, RefID: "xe-" + e.ItemRef[:6], Accepted: true}
		}
		return &BulkResponse{Results: results}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Package.Status != PackageStatusSuccess {
		t.Errorf("expected SUCCESS, got %s", result.Package.Status)
	}
	if result.Package.SuccessCount != 2 || result.Package.FailureCount != 0 {
		t.Errorf("expected 2/0 counts, got %d/%d", result.Package.SuccessCount, result.Package.FailureCount)
	}
	if result.Package.CompletedAt == nil {
		t.Error("terminal package should have CompletedAt set")
	}

	updates := f.pkgRepo.Updates[result.Package.ID]
	if len(updates) != 2 {
		t.Fatalf("expected 2 property updates, got %d", len(updates))
	}
	for _, u := range updates {
		if u.SetPublished == nil || !*u.SetPublished {
			t.Error("successful ADD should publish the property")
		}
		if !u.SetRefID || u.RefID == "" {
			t.Error("successful ADD should store the portal ref id")
		}
	}
	if f.notifs.Created != 1 {
		t.Errorf("expected one notification, got %d", f.notifs.Created)
	}
}

func TestSubmitSyncPartialFailureIsSuccess(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID), validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
			{ItemRef: req.Entries[1].ItemRef, Accepted: false, Reason: "duplicate listing"},
		}}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Package.Status != PackageStatusSuccess {
		t.Errorf("a package with one accepted item should be SUCCESS, got %s", result.Package.Status)
	}
	if result.Package.SuccessCount != 1 || result.Package.FailureCount != 1 {
		t.Errorf("expected 1/1 counts, got %d/%d", result.Package.SuccessCount, result.Package.FailureCount)
	}
	if result.Package.SuccessCount+result.Package.FailureCount != result.Package.TotalItems {
		t.Error("counts must sum to total items on a terminal package")
	}

	var rejected *SyncItem
	for i := range result.Items {
		if result.Items[i].Status == ItemStatusFailed {
			rejected = &result.Items[i]
		}
	}
	if rejected == nil || rejected.Error != "duplicate listing" {
		t.Fatalf("rejected item should carry the portal reason, got %+v", rejected)
	}

	// The rejected property records the attempt but keeps its publication
	// state untouched.
	for _, u := range f.pkgRepo.Updates[result.Package.ID] {
		if u.PropertyID == rejected.PropertyID {
			if u.SetPublished != nil || u.SetRefID {
				t.Error("rejected item must not mutate publication state")
			}
			if u.LastSyncStatus != ItemStatusFailed {
				t.Errorf("rejected item should record FAILED sync status, got %s", u.LastSyncStatus)
			}
		}
	}
}

func TestSubmitSyncTransportFailure(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID), validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return nil, &TransportError{Op: "submit", Err: errors.New("connection refused")}
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("transport failure must not surface as an error: %v", err)
	}

	if result.Package.Status != PackageStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Package.Status)
	}
	if result.Package.ErrorMessage == "" {
		t.Error("transport failure should record the cause on the package")
	}
	if result.Package.FailureCount != 2 {
		t.Errorf("all items fail on transport failure, got %d", result.Package.FailureCount)
	}
	for _, item := range result.Items {
		if item.Status != ItemStatusFailed {
			t.Errorf("expected all items FAILED, got %s", item.Status)
		}
	}
	if len(f.pkgRepo.Updates[result.Package.ID]) != 0 {
		t.Error("no property may be mutated on transport failure")
	}
}

func TestSubmitSyncAllPreFailedSkipsPortal(t *testing.T) {
	broken := validProperty(primitive.NilObjectID)
	broken.Price = 0
	f := newFixture(broken)

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.client.SubmitCalls != 0 {
		t.Error("portal must not be contacted when every item pre-failed")
	}
	if result.Package.Status != PackageStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Package.Status)
	}
	// Pre-failed items still record the attempt on the property.
	updates := f.pkgRepo.Updates[result.Package.ID]
	if len(updates) != 1 {
		t.Fatalf("expected 1 property update, got %d", len(updates))
	}
	if updates[0].SetPublished != nil {
		t.Error("pre-failed item must not change publication state")
	}
}

func TestSubmitSyncAsyncLeavesProcessing(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Async: true, AckID: "ack-99"}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Package.Status != PackageStatusProcessing {
		t.Errorf("expected PROCESSING, got %s", result.Package.Status)
	}
	if result.Package.AckID != "ack-99" {
		t.Errorf("expected ack id stored, got %q", result.Package.AckID)
	}
	if result.Package.CompletedAt != nil {
		t.Error("in-flight package must not have CompletedAt")
	}
	for _, item := range result.Items {
		if item.Status != ItemStatusPending {
			t.Errorf("async items stay PENDING, got %s", item.Status)
		}
	}
	if f.notifs.Created != 0 {
		t.Error("no notification before the package is terminal")
	}
}

func TestSubmitSyncRemoveUnpublishes(t *testing.T) {
	p := validProperty(primitive.NilObjectID)
	p.XERefID = "xe-55"
	f := newFixture(p)
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		if req.Entries[0].RefID != "xe-55" {
			t.Errorf("REMOVE entry should carry the ref id, got %q", req.Entries[0].RefID)
		}
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, Accepted: true},
		}}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeRemoveItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updates := f.pkgRepo.Updates[result.Package.ID]
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	u := updates[0]
	if u.SetPublished == nil || *u.SetPublished {
		t.Error("successful REMOVE should unpublish")
	}
	if !u.SetRefID || u.RefID != "" {
		t.Error("successful REMOVE should clear the ref id")
	}
	// The item row keeps the removed listing's ref id for history.
	if result.Items[0].XERefID != "xe-55" {
		t.Errorf("REMOVE item should record the targeted ref id, got %q", result.Items[0].XERefID)
	}
}

func TestSubmitSyncWithoutConfig(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.configRepo.Config = nil

	_, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReconcileCompletesAsyncPackage(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Async: true, AckID: "ack-1"}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.client.StatusFn = func(ackID string) (*StatusResponse, error) {
		if ackID != "ack-1" {
			t.Errorf("expected ack-1, got %q", ackID)
		}
		return &StatusResponse{Complete: true, Results: []ItemResult{
			{ItemRef: f.reader.Properties[0].ID.Hex(), RefID: "xe-async", Accepted: true},
		}}, nil
	}

	detail, err := f.service.Reconcile(context.Background(), f.tenantID, result.Package.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Package.Status != PackageStatusSuccess {
		t.Errorf("expected SUCCESS after reconciliation, got %s", detail.Package.Status)
	}
	if detail.Items[0].XERefID != "xe-async" {
		t.Errorf("reconciled ADD should carry the ref id, got %q", detail.Items[0].XERefID)
	}
	if f.pkgRepo.ReconciliationCount != 1 {
		t.Errorf("expected 1 reconciliation write, got %d", f.pkgRepo.ReconciliationCount)
	}
	if f.notifs.Created != 1 {
		t.Errorf("terminal reconciliation should notify once, got %d", f.notifs.Created)
	}
}

func TestReconcileTerminalPackageIsNoop(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
		}}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	detail, err := f.service.Reconcile(context.Background(), f.tenantID, result.Package.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.client.StatusCalls != 0 {
		t.Error("terminal packages must not be polled")
	}
	if f.pkgRepo.ReconciliationCount != 0 {
		t.Error("terminal packages must not be rewritten")
	}
	if detail.Package.Status != PackageStatusSuccess {
		t.Errorf("stored state should be returned unchanged, got %s", detail.Package.Status)
	}
}

func TestReconcileIncompleteStaysProcessing(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Async: true, AckID: "ack-2"}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.client.StatusFn = func(ackID string) (*StatusResponse, error) {
		return &StatusResponse{Complete: false}, nil
	}

	detail, err := f.service.Reconcile(context.Background(), f.tenantID, result.Package.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Package.Status != PackageStatusProcessing {
		t.Errorf("incomplete package stays PROCESSING, got %s", detail.Package.Status)
	}
	if f.pkgRepo.ReconciliationCount != 0 {
		t.Error("incomplete poll must not write anything")
	}
}

func TestReconcilePendingSweepsInFlight(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Async: true, AckID: "ack-3"}, nil
	}

	if _, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.client.StatusFn = func(ackID string) (*StatusResponse, error) {
		return &StatusResponse{Complete: true, Results: []ItemResult{
			{ItemRef: f.reader.Properties[0].ID.Hex(), RefID: "xe-cron", Accepted: true},
		}}, nil
	}

	f.service.ReconcilePending(context.Background())

	if f.pkgRepo.ReconciliationCount != 1 {
		t.Errorf("sweep should resolve the in-flight package, got %d writes", f.pkgRepo.ReconciliationCount)
	}

	// A second sweep finds nothing in flight.
	f.service.ReconcilePending(context.Background())
	if f.pkgRepo.ReconciliationCount != 1 {
		t.Error("second sweep must be a no-op")
	}
}

func TestRetryFailedPackage(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return nil, &TransportError{Op: "submit", Err: errors.New("timeout")}
	}

	failed, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-retry", Accepted: true},
		}}, nil
	}

	result, err := f.service.Retry(context.Background(), f.tenantID, f.userID, failed.Package.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Package.ID == failed.Package.ID {
		t.Error("retry must create a new package")
	}
	if result.Package.Status != PackageStatusSuccess {
		t.Errorf("expected SUCCESS on retry, got %s", result.Package.Status)
	}

	original, err := f.pkgRepo.Get(context.Background(), f.tenantID, failed.Package.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if original.Status != PackageStatusFailed {
		t.Error("the failed package must stay FAILED after retry")
	}
}

func TestRetryNonFailedPackageRejected(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
		}}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.service.Retry(context.Background(), f.tenantID, f.userID, result.Package.ID)

	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestGetDetailCrossTenantIsNotFound(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
		}}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.service.GetDetail(context.Background(), primitive.NewObjectID(), result.Package.ID)

	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("another tenant's package must read as not found, got %v", err)
	}
}

func TestGetStatsEmptyTenant(t *testing.T) {
	f := newFixture()

	stats, err := f.service.GetStats(context.Background(), f.tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalSyncs != 0 {
		t.Errorf("expected 0 syncs, got %d", stats.TotalSyncs)
	}
	if stats.SuccessRate != 0 {
		t.Errorf("success rate must be 0 with no syncs, got %f", stats.SuccessRate)
	}
	if stats.LastSyncAt != nil {
		t.Error("no syncs means no last sync time")
	}
}

func TestGetStatsCountsAndRate(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.reader.PublishedCount = 1

	// One success, one transport failure.
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
		}}, nil
	}
	if _, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return nil, &TransportError{Op: "submit", Err: fmt.Errorf("down")}
	}
	if _, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeRemoveItems); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := f.service.GetStats(context.Background(), f.tenantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalSyncs != 2 || stats.SuccessfulSyncs != 1 || stats.FailedSyncs != 1 {
		t.Errorf("expected 2/1/1, got %d/%d/%d", stats.TotalSyncs, stats.SuccessfulSyncs, stats.FailedSyncs)
	}
	if stats.SuccessRate != 0.5 {
		t.Errorf("expected success rate 0.5, got %f", stats.SuccessRate)
	}
	if stats.TotalPropertiesSynced != 1 {
		t.Errorf("expected 1 published property, got %d", stats.TotalPropertiesSynced)
	}
	if stats.LastSyncAt == nil {
		t.Error("expected a last sync time")
	}
}

func TestAutoPublishRespectsConfig(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.configRepo.Config.AutoPublish = false

	f.service.AutoPublish(context.Background(), f.tenantID, f.reader.Properties[0].ID)

	if f.client.SubmitCalls != 0 {
		t.Error("auto publish disabled: the portal must not be contacted")
	}

	f.configRepo.Config.AutoPublish = true
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-auto", Accepted: true},
		}}, nil
	}

	f.service.AutoPublish(context.Background(), f.tenantID, f.reader.Properties[0].ID)

	if f.client.SubmitCalls != 1 {
		t.Errorf("auto publish enabled: expected one submission, got %d", f.client.SubmitCalls)
	}
	if f.pkgRepo.SubmissionCount != 1 {
		t.Errorf("expected one persisted package, got %d", f.pkgRepo.SubmissionCount)
	}
}

func TestSubmitSyncDeduplicatesPropertyIDs(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		if len(req.Entries) != 1 {
			t.Errorf("expected 1 entry after dedup, got %d", len(req.Entries))
		}
		return &BulkResponse{Results: []ItemResult{
			{ItemRef: req.Entries[0].ItemRef, RefID: "xe-1", Accepted: true},
		}}, nil
	}

	id := f.reader.Properties[0].ID
	type outcome struct {
		result *SubmitResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, []primitive.ObjectID{id, id, id}, RequestTypeAddItems)
		done <- outcome{r, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submission with a repeated property id never returned")
	}
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if out.result.Package.TotalItems != 1 || len(out.result.Items) != 1 {
		t.Errorf("repeated id must yield a single item, got %d/%d", out.result.Package.TotalItems, len(out.result.Items))
	}

	// The property's lock must be free afterwards.
	r2, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, []primitive.ObjectID{id}, RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Package.Status != PackageStatusSuccess {
		t.Errorf("follow-up submission should succeed, got %s", r2.Package.Status)
	}
}

func TestListHistoryFilterOrderingAndPaging(t *testing.T) {
	f := newFixture()
	base := time.Now()
	seed := func(status PackageStatus, age time.Duration) primitive.ObjectID {
		id := primitive.NewObjectID()
		f.pkgRepo.Packages[id] = &SyncPackage{
			ID:          id,
			TenantID:    f.tenantID,
			RequestType: RequestTypeAddItems,
			Status:      status,
			SubmittedAt: base.Add(-age),
		}
		return id
	}
	newest := seed(PackageStatusFailed, 0)
	middle := seed(PackageStatusFailed, time.Minute)
	oldest := seed(PackageStatusFailed, 2*time.Minute)
	seed(PackageStatusSuccess, 30*time.Second)

	page, err := f.service.ListHistory(context.Background(), f.tenantID, HistoryFilter{Status: PackageStatusFailed, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("expected 3 FAILED packages, got %d", page.Total)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items on the first page, got %d", len(page.Items))
	}
	if !page.HasMore {
		t.Error("first page should report more results")
	}
	if page.Items[0].ID != newest || page.Items[1].ID != middle {
		t.Error("history must be newest-first")
	}
	for _, p := range page.Items {
		if p.Status != PackageStatusFailed {
			t.Errorf("status filter leaked a %s package", p.Status)
		}
	}

	second, err := f.service.ListHistory(context.Background(), f.tenantID, HistoryFilter{Status: PackageStatusFailed, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].ID != oldest {
		t.Fatalf("second page should hold the oldest package, got %d items", len(second.Items))
	}
	if second.HasMore {
		t.Error("last page must not report more results")
	}
}

func TestReconcileWaitsForPropertyLock(t *testing.T) {
	f := newFixture(validProperty(primitive.NilObjectID))
	f.client.SubmitFn = func(req *BulkRequest) (*BulkResponse, error) {
		return &BulkResponse{Async: true, AckID: "ack-lock"}, nil
	}

	result, err := f.service.SubmitSync(context.Background(), f.tenantID, f.userID, f.propertyIDs(), RequestTypeAddItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.client.StatusFn = func(ackID string) (*StatusResponse, error) {
		return &StatusResponse{Complete: true, Results: []ItemResult{
			{ItemRef: f.reader.Properties[0].ID.Hex(), RefID: "xe-locked", Accepted: true},
		}}, nil
	}

	impl := f.service.(*SyncServiceImpl)
	unlock := impl.locks.LockAll([]string{f.reader.Properties[0].ID.Hex()})

	done := make(chan struct{})
	go func() {
		if _, err := f.service.Reconcile(context.Background(), f.tenantID, result.Package.ID); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reconciliation applied results while the property was locked")
	case <-time.After(100 * time.Millisecond):
	}

	unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciliation never completed after the lock was released")
	}
	if f.pkgRepo.ReconciliationCount != 1 {
		t.Errorf("expected 1 reconciliation write, got %d", f.pkgRepo.ReconciliationCount)
	}
}

func TestSaveConfigValidatesAndKeepsSecrets(t *testing.T) {
	f := newFixture()

	if err := f.service.SaveConfig(context.Background(), &IntegrationConfig{TenantID: f.tenantID, Username: "u", Password: "p"}); err == nil {
		t.Error("missing store_id must be rejected")
	}

	existing := f.configRepo.Config
	update := &IntegrationConfig{
		TenantID: f.tenantID,
		Username: existing.Username,
		StoreID:  existing.StoreID,
		IsActive: true,
	}
	if err := f.service.SaveConfig(context.Background(), update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.Password != "pw" {
		t.Errorf("update without password must keep the stored one, got %q", update.Password)
	}
}
