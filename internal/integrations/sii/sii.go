package sii

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/Dan9191/rental-yield/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Scraper reads the UF value from the yearly table published by the SII
type Scraper struct {
	urlTemplate string
	client      *http.Client
	log         *logrus.Logger
	now         func() time.Time
}

// NewScraper creates a scraper. The configured URL contains a %d verb for the year.
func NewScraper(cfg *config.Config, log *logrus.Logger) *Scraper {
	return &Scraper{
		urlTemplate: cfg.SIIURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
		now:         time.Now,
	}
}

// Name identifies the provider in logs and responses
func (s *Scraper) Name() string {
	return "sii"
}

// FetchUF downloads the table for the current year and returns today's value
func (s *Scraper) FetchUF(ctx context.Context) (models.UFRate, error) {
	today := s.now()
	url := s.urlTemplate
	if strings.Contains(url, "%d") {
		url = fmt.Sprintf(url, today.Year())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.UFRate{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rental-yield)")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.UFRate{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.UFRate{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.UFRate{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	value, err := extractValue(doc, today.Day(), int(today.Month()))
	if err != nil {
		return models.UFRate{}, err
	}

	s.log.Infof("Scraped UF value: %.2f", value)
	return models.UFRate{
		Value:   value,
		Date:    today.Format("02-01-2006"),
		Source:  s.Name(),
		Fetched: today,
	}, nil
}

// extractValue finds the cell for day (row) and month (column)
func extractValue(doc *goquery.Document, day, month int) (float64, error) {
	var (
		value float64
		found bool
	)
	want := strconv.Itoa(day)

	doc.Find("table#table_export tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if strings.TrimSpace(row.Find("th").First().Text()) != want {
			return true
		}
		cell := row.Find("td").Eq(month - 1)
		if cell.Length() == 0 {
			return false
		}
		if v, ok := parseChileanNumber(cell.Text()); ok {
			value, found = v, true
		}
		return false
	})

	if !found {
		return 0, fmt.Errorf("no UF value for day %d month %d", day, month)
	}
	return value, nil
}

// parseChileanNumber parses values like "38.419,17"
func parseChileanNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
