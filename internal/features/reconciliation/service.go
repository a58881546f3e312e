package reconciliation

import (
	"context"
	"fmt"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Storer interface {
	findItem(ctx context.Context, itemID uuid.UUID) (*item.Item, error)
	listActiveItems(ctx context.Context) ([]*item.Item, error)
}

type ServiceConfig struct {
	Store       Storer
	Recipes     RecipeProvider
	Occupancy   OccupancyProvider
	EventEngine eventengine.RegisterPublisher
	Logger      *zap.Logger

	// VendorBacklogRatio is the atVendor share of the conceptual total
	// above which the vendor is flagged as a backlog risk.
	VendorBacklogRatio float64
}

type service struct {
	*ServiceConfig
}

func NewService(cfg *ServiceConfig) *service {
	if cfg == nil || cfg.Store == nil || cfg.Recipes == nil || cfg.Occupancy == nil ||
		cfg.EventEngine == nil || cfg.Logger == nil {
		panic("reconciliation: config, Store, Recipes, Occupancy, EventEngine and Logger are all required")
	}

	if cfg.VendorBacklogRatio <= 0 {
		cfg.VendorBacklogRatio = 0.30
	}

	cfg.EventEngine.RegisterEvents(event.StockAlertEventName)

	return &service{
		ServiceConfig: cfg,
	}
}

// standardDemand is Σ over currently-occupied rooms of the room type's
// recipe quantity for the item.
func (s *service) standardDemand(ctx context.Context, itemID uuid.UUID) (int, error) {
	occupiedCounts, err := s.Occupancy.OccupiedRoomCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load occupancy snapshot: %w", err)
	}

	total := 0
	for roomType, occupied := range occupiedCounts {
		if occupied <= 0 {
			continue
		}

		recipe, err := s.Recipes.RecipeFor(ctx, roomType)
		if err != nil {
			return 0, fmt.Errorf("failed to load recipe for room type %q: %w", roomType, err)
		}

		for _, line := range recipe {
			if line.ItemID == itemID {
				total += line.QtyPerRoom * occupied
			}
		}
	}

	return total, nil
}

// Report computes the variance report for one item on demand; nothing is
// recomputed on writes.
func (s *service) Report(ctx context.Context, itemID uuid.UUID) (*VarianceReport, error) {
	it, err := s.Store.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.buildReport(ctx, it)
}

func (s *service) buildReport(ctx context.Context, it *item.Item) (*VarianceReport, error) {
	standardDemand, err := s.standardDemand(ctx, it.ItemID)
	if err != nil {
		return nil, err
	}

	activeLending, err := s.Occupancy.ActiveLending(ctx, it.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active lending: %w", err)
	}

	theoreticalRequirement := standardDemand + activeLending
	conceptualTotal := it.ConceptualTotal()

	report := &VarianceReport{
		ItemID:                 it.ItemID,
		ItemName:               it.Name,
		Category:               it.Category,
		Counters:               it.Counters,
		ConceptualTotal:        conceptualTotal,
		RecordedTotal:          it.RecordedTotal,
		BookVariance:           conceptualTotal - it.RecordedTotal,
		StandardDemand:         standardDemand,
		ActiveLending:          activeLending,
		TheoreticalRequirement: theoreticalRequirement,
		DemandVariance:         it.RecordedTotal - theoreticalRequirement,
	}

	report.Alerts = s.evaluateAlerts(it, report)

	return report, nil
}

func (s *service) evaluateAlerts(it *item.Item, report *VarianceReport) []Alert {
	var alerts []Alert

	if it.Available <= it.MinThreshold {
		alerts = append(alerts, Alert{
			Kind: event.AlertLowStock,
			Detail: fmt.Sprintf(
				"available %d at or below threshold %d",
				it.Available, it.MinThreshold,
			),
		})
	}

	if report.ConceptualTotal > 0 {
		vendorShare := float64(it.AtVendor) / float64(report.ConceptualTotal)
		if vendorShare > s.VendorBacklogRatio {
			alerts = append(alerts, Alert{
				Kind: event.AlertVendorBacklog,
				Detail: fmt.Sprintf(
					"%d of %d units at vendor (%.0f%%)",
					it.AtVendor, report.ConceptualTotal, vendorShare*100,
				),
			})
		}
	}

	if report.DemandVariance < 0 {
		alerts = append(alerts, Alert{
			Kind: event.AlertShortage,
			Detail: fmt.Sprintf(
				"recorded total %d short of theoretical requirement %d by %d",
				report.RecordedTotal, report.TheoreticalRequirement, -report.DemandVariance,
			),
		})
	}

	return alerts
}

// Alerts sweeps every active item and returns only the reports that
// raised at least one alert, publishing each for best-effort delivery.
func (s *service) Alerts(ctx context.Context) (*AlertsResponse, error) {
	items, err := s.Store.listActiveItems(ctx)
	if err != nil {
		return nil, err
	}

	response := &AlertsResponse{
		ItemsChecked: len(items),
	}

	for _, it := range items {
		report, err := s.buildReport(ctx, it)
		if err != nil {
			return nil, err
		}

		if len(report.Alerts) == 0 {
			continue
		}

		response.Reports = append(response.Reports, report)

		for _, alert := range report.Alerts {
			s.publishAlert(it, alert)
		}
	}

	return response, nil
}

func (s *service) publishAlert(it *item.Item, alert Alert) {
	err := s.EventEngine.Publish(&event.Event{
		Name: event.StockAlertEventName,
		Payload: &event.StockAlertEvent{
			ItemID:       it.ItemID,
			ItemName:     it.Name,
			Kind:         alert.Kind,
			Available:    it.Available,
			MinThreshold: it.MinThreshold,
			Detail:       alert.Detail,
		},
	})
	if err != nil {
		s.Logger.Warn("failed to publish stock alert",
			zap.String("item", it.Name),
			zap.Error(err),
		)
	}
}
