// Package storage writes result sets to disk.
package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV, "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// DefaultFilename names an export after the time it was taken.
func DefaultFilename(format Format, now time.Time) string {
	return fmt.Sprintf("alibaba_products_%s.%s", now.Format("20060102_150405"), format)
}

// Save writes listings to path. The file is replaced atomically.
func Save(path string, listings []models.Listing, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(listings, "", "  ")
	case FormatCSV:
		data, err = encodeCSV(listings)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return writeAtomic(path, data)
}

// Load reads a JSON export back.
func Load(path string) ([]models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return listings, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

var csvColumns = []struct {
	name  string
	value func(l *models.Listing) string
}{
	{"product_id", func(l *models.Listing) string { return l.ProductID }},
	{"title", func(l *models.Listing) string { return l.Title }},
	{"price", func(l *models.Listing) string { return formatFloat(l.Price) }},
	{"price_min", func(l *models.Listing) string { return formatFloat(l.PriceMin) }},
	{"price_max", func(l *models.Listing) string { return formatFloat(l.PriceMax) }},
	{"currency", func(l *models.Listing) string { return l.Currency }},
	{"product_link", func(l *models.Listing) string { return l.URL }},
	{"image_link", func(l *models.Listing) string { return l.ImageURL }},
	{"minimum_order", func(l *models.Listing) string { return formatFloat(l.MOQ) }},
	{"moq_unit", func(l *models.Listing) string { return l.MOQUnit }},
	{"amount_sold", func(l *models.Listing) string { return formatInt(l.SoldQuantity) }},
	{"amount_of_reviews", func(l *models.Listing) string { return formatInt(l.ProductReview.Count) }},
	{"review_average", func(l *models.Listing) string { return formatFloat(l.ProductReview.Avg) }},
	{"seller_name", func(l *models.Listing) string { return l.Supplier.Name }},
	{"seller_link", func(l *models.Listing) string { return l.Supplier.ProfileURL }},
	{"is_supplier_verified", func(l *models.Listing) string { return formatBool(l.Supplier.Verified) }},
	{"supplier_gold_level", func(l *models.Listing) string { return formatInt(l.Supplier.GoldLevel) }},
	{"supplier_years", func(l *models.Listing) string { return formatInt(l.Supplier.Years) }},
	{"supplier_country", func(l *models.Listing) string { return l.Supplier.CountryCode }},
	{"supplier_reviews", func(l *models.Listing) string { return formatInt(l.Supplier.Review.Count) }},
	{"supplier_review_average", func(l *models.Listing) string { return formatFloat(l.Supplier.Review.Avg) }},
	{"certifications", func(l *models.Listing) string { return strings.Join(l.Certifications, "|") }},
	{"delivery_estimate", func(l *models.Listing) string { return l.DeliveryEstimate }},
}

func encodeCSV(listings []models.Listing) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(csvColumns))
	for i, c := range csvColumns {
		header[i] = c.name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(csvColumns))
	for i := range listings {
		for j, c := range csvColumns {
			row[j] = c.value(&listings[i])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v opt.Value[float64]) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(v opt.Value[int]) string {
	n, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.Itoa(n)
}

func formatBool(v opt.Value[bool]) string {
	b, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatBool(b)
}
