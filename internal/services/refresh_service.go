package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"country-service/internal/event"
	"country-service/internal/models"
	"country-service/internal/repository"
)

// Multiplier range for the estimated GDP formula.
const (
	gdpMultiplierMin = 1000
	gdpMultiplierMax = 2000
)

// IRandSource abstracts the multiplier draw so tests can pin it.
type IRandSource interface {
	IntBetween(lo, hi int) int
}

type mathRandSource struct{}

func (mathRandSource) IntBetween(lo, hi int) int {
	return lo + rand.Intn(hi-lo+1)
}

// NewRandSource returns the production randomness source.
func NewRandSource() IRandSource {
	return mathRandSource{}
}

// RefreshTier classifies the terminal state of one refresh cycle.
type RefreshTier int

const (
	TierSuccess RefreshTier = iota
	TierPartial
	TierAllInvalid
	TierUpstreamDown
	TierInternalError
)

// RefreshOutcome carries everything the handler needs to build the response.
// Committed reports whether the batch was written, even when a later step
// failed, so callers know stored data changed.
type RefreshOutcome struct {
	Tier           RefreshTier
	Now            time.Time
	TotalInDB      int
	InvalidEntries []models.InvalidEntry
	FailedSource   string
	Err            error
	Committed      bool
}

type ICountryRefreshService interface {
	Refresh(ctx context.Context) RefreshOutcome
}

type CountryRefreshService struct {
	external  IExternalDataService
	repo      repository.ICountryRepository
	image     ISummaryImageService
	publisher event.IRefreshPublisher
	rand      IRandSource
}

func NewCountryRefreshService(
	external IExternalDataService,
	repo repository.ICountryRepository,
	image ISummaryImageService,
	publisher event.IRefreshPublisher,
	randSource IRandSource,
) ICountryRefreshService {
	return &CountryRefreshService{
		external:  external,
		repo:      repo,
		image:     image,
		publisher: publisher,
		rand:      randSource,
	}
}

// Refresh runs one full cycle: fetch both upstream datasets, reconcile every
// entry, commit the survivors in one transaction and classify the result.
func (s *CountryRefreshService) Refresh(ctx context.Context) RefreshOutcome {
	entries, err := s.external.FetchCountries(ctx)
	if err != nil {
		return upstreamOutcome(err)
	}

	rates, err := s.external.FetchExchangeRates(ctx)
	if err != nil {
		return upstreamOutcome(err)
	}

	now := time.Now().UTC()
	upserts, invalids := s.reconcile(entries, rates, now)

	if len(upserts) == 0 {
		slog.Warn("Refresh produced no valid countries", "fetched", len(entries), "invalid", len(invalids))
		return RefreshOutcome{Tier: TierAllInvalid, Now: now, InvalidEntries: invalids}
	}

	saved, err := s.repo.UpsertBatch(ctx, upserts)
	if err != nil {
		return RefreshOutcome{Tier: TierInternalError, Now: now, Err: err}
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return RefreshOutcome{Tier: TierInternalError, Now: now, Err: err, Committed: true}
	}

	tier := TierSuccess
	if len(invalids) > 0 {
		tier = TierPartial
	}
	slog.Info("Refresh committed", "saved", saved, "total_in_db", total, "invalid", len(invalids))

	s.triggerSideEffects(ctx, tier, saved, len(invalids), now)

	return RefreshOutcome{
		Tier:           tier,
		Now:            now,
		TotalInDB:      total,
		InvalidEntries: invalids,
		Committed:      true,
	}
}

// reconcile walks the raw entries in input order, validating each and
// computing the currency and GDP fields. A bad entry is recorded and
// skipped; it never aborts the batch.
func (s *CountryRefreshService) reconcile(entries []models.RawCountryEntry, rates models.ExchangeRateTable, now time.Time) ([]models.CountryUpsert, []models.InvalidEntry) {
	upserts := make([]models.CountryUpsert, 0, len(entries))
	var invalids []models.InvalidEntry

	for _, entry := range entries {
		if entry.Name == "" {
			invalids = append(invalids, models.InvalidEntry{Country: "(unknown)", Error: "name is required"})
			continue
		}
		if entry.Population <= 0 {
			invalids = append(invalids, models.InvalidEntry{Country: entry.Name, Error: "population is required"})
			continue
		}

		var code *string
		if len(entry.Currencies) > 0 && entry.Currencies[0].Code != "" {
			c := entry.Currencies[0].Code
			code = &c
		}

		var exchangeRate *float64
		var estimatedGDP *float64
		if code == nil {
			// No currency: GDP is a definite zero, not unknown.
			zero := 0.0
			estimatedGDP = &zero
		} else if rate, ok := rates[*code]; ok && rate > 0 {
			r := rate
			exchangeRate = &r
			multiplier := s.rand.IntBetween(gdpMultiplierMin, gdpMultiplierMax)
			gdp := float64(entry.Population) * float64(multiplier) / rate
			estimatedGDP = &gdp
		}
		// Rate missing or non-positive: both fields stay null.

		upserts = append(upserts, models.CountryUpsert{
			Name:            entry.Name,
			Capital:         optionalString(entry.Capital),
			Region:          optionalString(entry.Region),
			Population:      entry.Population,
			CurrencyCode:    code,
			ExchangeRate:    exchangeRate,
			EstimatedGDP:    estimatedGDP,
			FlagURL:         optionalString(entry.Flag),
			LastRefreshedAt: now,
		})
	}

	return upserts, invalids
}

// triggerSideEffects regenerates the summary image and publishes the refresh
// event. Both are best effort; their failures never change the outcome tier.
func (s *CountryRefreshService) triggerSideEffects(ctx context.Context, tier RefreshTier, saved, invalid int, now time.Time) {
	if s.image != nil {
		if err := s.image.Regenerate(ctx); err != nil {
			slog.Error("Failed to regenerate summary image", "error", err)
		}
	}

	if s.publisher != nil {
		evt := event.RefreshEvent{
			Tier:         tierLabel(tier),
			SavedCount:   saved,
			InvalidCount: invalid,
			RefreshedAt:  now,
		}
		if err := s.publisher.PublishRefresh(ctx, evt); err != nil {
			slog.Error("Failed to publish refresh event", "error", err)
		}
	}
}

func tierLabel(tier RefreshTier) string {
	if tier == TierPartial {
		return "partial"
	}
	return "success"
}

func upstreamOutcome(err error) RefreshOutcome {
	var apiErr *models.ExternalAPIError
	if errors.As(err, &apiErr) {
		slog.Error("Upstream fetch failed", "api", apiErr.APIName)
		return RefreshOutcome{Tier: TierUpstreamDown, FailedSource: apiErr.APIName}
	}
	return RefreshOutcome{Tier: TierInternalError, Err: err}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
