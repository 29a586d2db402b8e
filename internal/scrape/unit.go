package scrape

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"mnsos/internal/config"
	"mnsos/pkg/contracts/domain"
)

// Scraper combines the portal driver and the extractor into the two
// record-producing operations. A nil record with a nil error is a clean
// miss: the file number or locator resolves to no business.
type Scraper struct {
	portal *Portal
	cfg    config.ScraperConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewScraper wires a Scraper over an already-connected portal.
func NewScraper(portal *Portal, cfg config.ScraperConfig, logger *slog.Logger) *Scraper {
	return &Scraper{
		portal: portal,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ScrapeByFileNumber searches for one file number and extracts the record
// behind it. Transient failures are retried with a fixed delay.
func (s *Scraper) ScrapeByFileNumber(ctx context.Context, fileNumber int) (*domain.BusinessRecord, error) {
	var record *domain.BusinessRecord
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay, s.logger, func(ctx context.Context) error {
		ctx, cancel := s.attemptContext(ctx)
		defer cancel()

		found, businessName, err := s.portal.LocateByFileNumber(ctx, fileNumber)
		if err != nil {
			return err
		}
		if !found {
			record = nil
			return nil
		}

		html, err := s.portal.HTML(ctx)
		if err != nil {
			return err
		}
		record, err = ExtractRecord(html, formatFileNumber(fileNumber), businessName, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ScrapeByLocator opens a details page directly by filing GUID. The GUID
// doubles as the record's file number so locator-discovered records dedup
// against themselves across runs. fallbackName fills in when the details
// page carries no heading.
func (s *Scraper) ScrapeByLocator(ctx context.Context, guid, fallbackName string) (*domain.BusinessRecord, error) {
	var record *domain.BusinessRecord
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay, s.logger, func(ctx context.Context) error {
		ctx, cancel := s.attemptContext(ctx)
		defer cancel()

		businessName, ok, err := s.portal.OpenByLocator(ctx, guid)
		if err != nil {
			return err
		}
		if !ok {
			record = nil
			return nil
		}

		html, err := s.portal.HTML(ctx)
		if err != nil {
			return err
		}
		record, err = ExtractRecord(html, guid, businessName, s.now())
		if err != nil {
			return err
		}
		if record.BusinessName == "" {
			record.BusinessName = fallbackName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// attemptContext bounds a single search-and-extract attempt so a hung page
// load cannot stall the worker past the configured page timeout.
func (s *Scraper) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.PageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.PageTimeout)
}

func formatFileNumber(n int) string {
	// File numbers are kept as strings everywhere downstream; GUIDs share
	// the same column.
	return strconv.Itoa(n)
}
