// Package services orchestrates datasets, reports and reload notifications.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesdash/internal/amqp"
	"salesdash/internal/dataset"
	applog "salesdash/internal/log"
	"salesdash/internal/pipeline"
	"salesdash/internal/source"
)

// Notifier broadcasts reloads to other instances.
type Notifier interface {
	PublishDatasetReloaded(ctx context.Context, msg *amqp.DatasetReloadedMessage) error
}

// DatasetInfo summarizes the dataset a result was computed from.
type DatasetInfo struct {
	Source            string
	RawRows           int
	Rows              int
	DuplicatesDropped int
	DateSource        string
	SalesStrategy     pipeline.SalesStrategy
	SalesSource       string
	DiscountScaled    bool
	LoadedAt          time.Time
}

func infoOf(ds *dataset.Dataset) DatasetInfo {
	p := ds.Prepared
	return DatasetInfo{
		Source:            ds.Identity,
		RawRows:           ds.RawRows,
		Rows:              p.Table.Len(),
		DuplicatesDropped: p.DuplicatesDropped,
		DateSource:        p.Date.Source,
		SalesStrategy:     p.Sales.Strategy,
		SalesSource:       p.Sales.Source,
		DiscountScaled:    p.Sales.DiscountScaled,
		LoadedAt:          ds.LoadedAt,
	}
}

type ReportResult struct {
	Dataset DatasetInfo
	Report  pipeline.Report
}

type FilterResult struct {
	Dataset DatasetInfo
	Options pipeline.FilterOptions
}

// ReportService serves reports for one data source.
type ReportService struct {
	store      *dataset.Store
	loader     source.Loader
	notifier   Notifier
	instanceID string
	logger     *applog.Logger
	slog       *applog.StructuredLogger
}

// NewReportService wires a service. notifier may be nil, in which case
// reloads stay local.
func NewReportService(store *dataset.Store, loader source.Loader, notifier Notifier, logger *applog.Logger) *ReportService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentReport)
	return &ReportService{
		store:      store,
		loader:     loader,
		notifier:   notifier,
		instanceID: uuid.NewString(),
		logger:     logger,
		slog:       applog.NewStructuredLogger(logger),
	}
}

// InstanceID identifies this process on the reload bus.
func (s *ReportService) InstanceID() string {
	return s.instanceID
}

// Report filters the dataset by sel and computes every report series.
// topN > 0 overrides the configured ranking size.
func (s *ReportService) Report(ctx context.Context, sel pipeline.Selection, topN int) (ReportResult, error) {
	ds, err := s.store.Get(ctx, s.loader)
	if err != nil {
		return ReportResult{}, err
	}
	opts := s.store.Options()
	if topN > 0 {
		opts.TopN = topN
	}
	r := pipeline.BuildReport(ds.Prepared, sel, opts)
	s.slog.LogReportBuilt(ctx, ds.Identity, r.KPIs.Orders, len(r.Notices), describe(sel))
	return ReportResult{Dataset: infoOf(ds), Report: r}, nil
}

// FilterOptions lists the choices offered for the dataset.
func (s *ReportService) FilterOptions(ctx context.Context) (FilterResult, error) {
	ds, err := s.store.Get(ctx, s.loader)
	if err != nil {
		return FilterResult{}, err
	}
	return FilterResult{
		Dataset: infoOf(ds),
		Options: pipeline.BuildFilterOptions(ds.Prepared, s.store.Options()),
	}, nil
}

// Reload drops the cached dataset, loads it again and tells other
// instances. A failed broadcast is logged and does not fail the reload.
func (s *ReportService) Reload(ctx context.Context) (DatasetInfo, error) {
	ds, err := s.store.Reload(ctx, s.loader)
	if err != nil {
		return DatasetInfo{}, err
	}
	info := infoOf(ds)
	if s.notifier != nil {
		msg := amqp.NewDatasetReloadedMessage(ds.Identity, s.instanceID, info.Rows)
		if err := s.notifier.PublishDatasetReloaded(ctx, msg); err != nil {
			s.slog.LogError(ctx, "Failed to publish reload notification", err,
				applog.ComponentAMQP, applog.OpPublish, applog.NewFields().WithSource(ds.Identity).WithErrorType(applog.ErrorTypeNetwork))
		}
	}
	return info, nil
}

// HandleReloadMessage invalidates the local copy of a dataset another
// instance reloaded. Messages from this instance or for other sources are
// ignored.
func (s *ReportService) HandleReloadMessage(ctx context.Context, msg *amqp.DatasetReloadedMessage) error {
	if msg == nil {
		return fmt.Errorf("nil reload message")
	}
	if msg.Origin == s.instanceID || msg.Source != s.loader.Identity() {
		return nil
	}
	s.store.Invalidate(s.loader)
	s.logger.InfoContext(ctx, "Dataset invalidated by remote reload",
		applog.FieldSource, msg.Source, "origin", msg.Origin, "message_id", msg.ID)
	return nil
}

// Ready reports whether the dataset can be loaded.
func (s *ReportService) Ready(ctx context.Context) error {
	_, err := s.store.Get(ctx, s.loader)
	return err
}

func describe(sel pipeline.Selection) string {
	var parts []string
	if !sel.Start.IsZero() {
		parts = append(parts, "start="+sel.Start.Format("2006-01-02"))
	}
	if !sel.End.IsZero() {
		parts = append(parts, "end="+sel.End.Format("2006-01-02"))
	}
	if len(sel.Categories) > 0 {
		parts = append(parts, "category="+strings.Join(sel.Categories, "|"))
	}
	if len(sel.Regions) > 0 {
		parts = append(parts, "region="+strings.Join(sel.Regions, "|"))
	}
	if len(sel.PaymentMethods) > 0 {
		parts = append(parts, "payment="+strings.Join(sel.PaymentMethods, "|"))
	}
	return strings.Join(parts, " ")
}
