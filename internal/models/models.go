package models

import (
	"time"
)

// TimestampLayout renders refresh timestamps as UTC ISO-8601 with no
// sub-second part and a literal trailing Z.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Country is the persisted country record.
type Country struct {
	ID              int64     `db:"id"`
	Name            string    `db:"name"`
	Capital         *string   `db:"capital"`
	Region          *string   `db:"region"`
	Population      int64     `db:"population"`
	CurrencyCode    *string   `db:"currency_code"`
	ExchangeRate    *float64  `db:"exchange_rate"`
	EstimatedGDP    *float64  `db:"estimated_gdp"`
	FlagURL         *string   `db:"flag_url"`
	LastRefreshedAt time.Time `db:"last_refreshed_at"`
}

// ToResponse builds the JSON shape returned by all read endpoints.
func (c *Country) ToResponse() CountryResponse {
	return CountryResponse{
		ID:              c.ID,
		Name:            c.Name,
		Capital:         c.Capital,
		Region:          c.Region,
		Population:      c.Population,
		CurrencyCode:    c.CurrencyCode,
		ExchangeRate:    c.ExchangeRate,
		EstimatedGDP:    c.EstimatedGDP,
		FlagURL:         c.FlagURL,
		LastRefreshedAt: FormatTimestamp(c.LastRefreshedAt),
	}
}

// CountryUpsert is the validated, storage-ready record produced by
// reconciliation. The batch upsert matches rows on LOWER(name).
type CountryUpsert struct {
	Name            string    `db:"name"`
	Capital         *string   `db:"capital"`
	Region          *string   `db:"region"`
	Population      int64     `db:"population"`
	CurrencyCode    *string   `db:"currency_code"`
	ExchangeRate    *float64  `db:"exchange_rate"`
	EstimatedGDP    *float64  `db:"estimated_gdp"`
	FlagURL         *string   `db:"flag_url"`
	LastRefreshedAt time.Time `db:"last_refreshed_at"`
}

// FormatTimestamp truncates to whole seconds and renders in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}
