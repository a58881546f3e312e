// Package notification delivers operational alerts raised by the
// inventory core. Delivery targets are pluggable; the default sink
// writes structured log lines that the hotel's ops tooling tails.
package notification

import (
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine/event"

	"go.uber.org/zap"
)

type Notifier interface {
	NotifyStockAlert(alert *event.StockAlertEvent) error
	NotifyFolioLine(line *event.FolioLinePostedEvent) error
}

type service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *service {
	return &service{
		logger: logger,
	}
}

func (s *service) NotifyStockAlert(alert *event.StockAlertEvent) error {
	s.logger.Warn(
		"stock alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("itemID", alert.ItemID.String()),
		zap.String("itemName", alert.ItemName),
		zap.Int("available", alert.Available),
		zap.Int("minThreshold", alert.MinThreshold),
		zap.String("detail", alert.Detail),
	)

	return nil
}

func (s *service) NotifyFolioLine(line *event.FolioLinePostedEvent) error {
	s.logger.Info(
		"folio line posted",
		zap.String("folioRef", line.FolioRef),
		zap.String("itemID", line.ItemID.String()),
		zap.String("itemName", line.ItemName),
		zap.Int("quantity", line.Quantity),
		zap.String("total", line.Total.String()),
	)

	return nil
}
