package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"country-service/internal/config"
	"country-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(countriesURL, ratesURL string) IExternalDataService {
	return NewExternalDataService(config.ExternalAPIConfig{
		CountriesURL:     countriesURL,
		ExchangeRatesURL: ratesURL,
	})
}

func TestFetchCountries_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"Togo","capital":"Lome","region":"Africa","population":8278724,
			 "flag":"https://flagcdn.com/tg.svg",
			 "currencies":[{"code":"XOF","name":"West African CFA franc","symbol":"Fr"}]}
		]`))
	}))
	defer server.Close()

	entries, err := newGateway(server.URL, server.URL).FetchCountries(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Togo", entries[0].Name)
	assert.Equal(t, int64(8278724), entries[0].Population)
	require.Len(t, entries[0].Currencies, 1)
	assert.Equal(t, "XOF", entries[0].Currencies[0].Code)
}

func TestFetchCountries_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newGateway(server.URL, server.URL).FetchCountries(context.Background())

	var apiErr *models.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Countries API", apiErr.APIName)
}

func TestFetchCountries_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	_, err := newGateway(server.URL, server.URL).FetchCountries(context.Background())

	var apiErr *models.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Countries API", apiErr.APIName)
}

func TestFetchCountries_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newGateway(server.URL, server.URL).FetchCountries(context.Background())

	var apiErr *models.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Countries API", apiErr.APIName)
}

func TestFetchExchangeRates_ConditionedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","rates":{"NGN":1600.5,"XOF":600.0}}`))
	}))
	defer server.Close()

	rates, err := newGateway(server.URL, server.URL).FetchExchangeRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1600.5, rates["NGN"])
	assert.Equal(t, 600.0, rates["XOF"])
}

func TestFetchExchangeRates_BareShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	rates, err := newGateway(server.URL, server.URL).FetchExchangeRates(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.92, rates["EUR"])
}

func TestFetchExchangeRates_MissingRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error"}`))
	}))
	defer server.Close()

	_, err := newGateway(server.URL, server.URL).FetchExchangeRates(context.Background())

	var apiErr *models.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Exchange Rates API", apiErr.APIName)
}
