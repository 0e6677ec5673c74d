package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"country-service/internal/config"
	"country-service/internal/models"
)

const fetchTimeout = 10 * time.Second

// API source names surfaced in 503 responses.
const (
	CountriesAPIName     = "Countries API"
	ExchangeRatesAPIName = "Exchange Rates API"
)

type IExternalDataService interface {
	FetchCountries(ctx context.Context) ([]models.RawCountryEntry, error)
	FetchExchangeRates(ctx context.Context) (models.ExchangeRateTable, error)
}

type ExternalDataService struct {
	cfg    config.ExternalAPIConfig
	client *http.Client
}

func NewExternalDataService(cfg config.ExternalAPIConfig) IExternalDataService {
	return &ExternalDataService{
		cfg:    cfg,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

type exchangeRatesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// FetchCountries fetches all countries from the REST Countries API. Every
// transport, status or parse problem collapses into an ExternalAPIError so
// no upstream detail leaks past the gateway.
func (s *ExternalDataService) FetchCountries(ctx context.Context) ([]models.RawCountryEntry, error) {
	body, err := s.get(ctx, s.cfg.CountriesURL, CountriesAPIName)
	if err != nil {
		return nil, err
	}

	var entries []models.RawCountryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		slog.Error("Error unmarshaling countries payload", "error", err)
		return nil, &models.ExternalAPIError{APIName: CountriesAPIName}
	}
	return entries, nil
}

// FetchExchangeRates fetches USD exchange rates. The provider answers either
// {result:"success", rates:{...}} or a bare {rates:{...}}; both are accepted.
func (s *ExternalDataService) FetchExchangeRates(ctx context.Context) (models.ExchangeRateTable, error) {
	body, err := s.get(ctx, s.cfg.ExchangeRatesURL, ExchangeRatesAPIName)
	if err != nil {
		return nil, err
	}

	var payload exchangeRatesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Error("Error unmarshaling exchange rates payload", "error", err)
		return nil, &models.ExternalAPIError{APIName: ExchangeRatesAPIName}
	}

	if payload.Rates == nil {
		slog.Error("Exchange rates payload missing rates map")
		return nil, &models.ExternalAPIError{APIName: ExchangeRatesAPIName}
	}
	return models.ExchangeRateTable(payload.Rates), nil
}

func (s *ExternalDataService) get(ctx context.Context, url, apiName string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Error("Error building upstream request", "api", apiName, "error", err)
		return nil, &models.ExternalAPIError{APIName: apiName}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("Error fetching upstream data", "api", apiName, "error", err)
		return nil, &models.ExternalAPIError{APIName: apiName}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Error reading upstream response", "api", apiName, "error", err)
		return nil, &models.ExternalAPIError{APIName: apiName}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Upstream returned non-success status", "api", apiName, "status", resp.StatusCode)
		return nil, &models.ExternalAPIError{APIName: apiName}
	}
	return body, nil
}
