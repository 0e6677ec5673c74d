package models

import "fmt"

// upstream payloads

// RawCountryEntry is one country as returned by the REST Countries API.
// It only lives for the duration of a refresh cycle.
type RawCountryEntry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population int64         `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ExchangeRateTable maps a currency code to its USD-denominated rate.
type ExchangeRateTable map[string]float64

// ExternalAPIError marks any upstream fetch failure. Only the source name
// leaks to callers; transport detail stays in the logs.
type ExternalAPIError struct {
	APIName string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("could not fetch data from %s", e.APIName)
}

// InvalidEntry records one rejected country during reconciliation.
type InvalidEntry struct {
	Country string `json:"country"`
	Error   string `json:"error"`
}

// responses

type CountryResponse struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Capital         *string  `json:"capital"`
	Region          *string  `json:"region"`
	Population      int64    `json:"population"`
	CurrencyCode    *string  `json:"currency_code"`
	ExchangeRate    *float64 `json:"exchange_rate"`
	EstimatedGDP    *float64 `json:"estimated_gdp"`
	FlagURL         *string  `json:"flag_url"`
	LastRefreshedAt string   `json:"last_refreshed_at"`
}

type RefreshSuccessResponse struct {
	Message         string `json:"message"`
	TotalCountries  int    `json:"total_countries"`
	LastRefreshedAt string `json:"last_refreshed_at"`
}

type RefreshPartialResponse struct {
	Message             string         `json:"message"`
	TotalCountriesSaved int            `json:"total_countries_saved"`
	InvalidEntriesCount int            `json:"invalid_entries_count"`
	SampleInvalids      []InvalidEntry `json:"sample_invalids"`
	LastRefreshedAt     string         `json:"last_refreshed_at"`
}

type StatusResponse struct {
	TotalCountries  int     `json:"total_countries"`
	LastRefreshedAt *string `json:"last_refreshed_at"`
}
