package portal

import (
	"context"

	"estia-crm/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler runs the periodic sweep that resolves PROCESSING packages
// against the portal's status endpoint.
type Reconciler struct {
	service   SyncService
	scheduler *cron.Cron
	spec      string
	logger    *zap.Logger
}

func NewReconciler(service SyncService, cfg *config.Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		service:   service,
		scheduler: cron.New(),
		spec:      cfg.ReconcileSpec,
		logger:    logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) error {
	_, err := r.scheduler.AddFunc(r.spec, func() {
		r.service.ReconcilePending(context.Background())
	})
	if err != nil {
		return err
	}

	r.scheduler.Start()
	r.logger.Info("portal reconciler started", zap.String("schedule", r.spec))
	return nil
}

func (r *Reconciler) Stop() error {
	stopCtx := r.scheduler.Stop()
	<-stopCtx.Done()
	r.logger.Info("portal reconciler stopped")
	return nil
}
