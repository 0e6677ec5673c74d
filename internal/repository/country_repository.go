package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"country-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrCountryNotFound is returned when a case-insensitive name lookup misses.
var ErrCountryNotFound = errors.New("country not found")

type ICountryRepository interface {
	UpsertBatch(ctx context.Context, records []models.CountryUpsert) (int, error)
	GetByName(ctx context.Context, name string) (*models.Country, error)
	DeleteByName(ctx context.Context, name string) error
	List(ctx context.Context, region, currency, sort string) ([]models.Country, error)
	Count(ctx context.Context) (int, error)
	LatestRefreshedAt(ctx context.Context) (*time.Time, error)
}

type CountryRepository struct {
	db *sqlx.DB
}

func NewCountryRepository(db *sqlx.DB) ICountryRepository {
	return &CountryRepository{
		db: db,
	}
}

const updateQuery = `
	UPDATE countries SET
		name = :name,
		capital = :capital,
		region = :region,
		population = :population,
		currency_code = :currency_code,
		exchange_rate = :exchange_rate,
		estimated_gdp = :estimated_gdp,
		flag_url = :flag_url,
		last_refreshed_at = :last_refreshed_at
	WHERE LOWER(name) = LOWER(:name)`

const insertQuery = `
	INSERT INTO countries (
		name, capital, region, population, currency_code,
		exchange_rate, estimated_gdp, flag_url, last_refreshed_at
	) VALUES (
		:name, :capital, :region, :population, :currency_code,
		:exchange_rate, :estimated_gdp, :flag_url, :last_refreshed_at
	)`

// UpsertBatch applies all records in one transaction. Existing rows are
// matched by LOWER(name) and fully overwritten; anything else is inserted.
// Any failure rolls the whole batch back.
func (r *CountryRepository) UpsertBatch(ctx context.Context, records []models.CountryUpsert) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, rec := range records {
		result, err := tx.NamedExecContext(ctx, updateQuery, rec)
		if err != nil {
			slog.Error("Failed to update country in batch", "name", rec.Name, "error", err)
			return 0, fmt.Errorf("failed to upsert country %s: %w", rec.Name, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check rows affected: %w", err)
		}

		if rowsAffected == 0 {
			if _, err := tx.NamedExecContext(ctx, insertQuery, rec); err != nil {
				slog.Error("Failed to insert country in batch", "name", rec.Name, "error", err)
				return 0, fmt.Errorf("failed to upsert country %s: %w", rec.Name, err)
			}
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit country batch", "error", err)
		return 0, fmt.Errorf("failed to commit country batch: %w", err)
	}

	slog.Info("Successfully upserted country batch", "count", saved)
	return saved, nil
}

func (r *CountryRepository) GetByName(ctx context.Context, name string) (*models.Country, error) {
	var country models.Country
	query := `SELECT * FROM countries WHERE LOWER(name) = LOWER($1)`
	err := r.db.GetContext(ctx, &country, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCountryNotFound
		}
		return nil, fmt.Errorf("failed to get country %s: %w", name, err)
	}
	return &country, nil
}

func (r *CountryRepository) DeleteByName(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM countries WHERE LOWER(name) = LOWER($1)`, name)
	if err != nil {
		return fmt.Errorf("failed to delete country %s: %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCountryNotFound
	}
	return nil
}

// List returns countries with optional case-insensitive region/currency
// filters. sort currently only understands "gdp_desc".
func (r *CountryRepository) List(ctx context.Context, region, currency, sort string) ([]models.Country, error) {
	var conditions []string
	var args []any

	if region != "" {
		args = append(args, region)
		conditions = append(conditions, fmt.Sprintf("LOWER(region) = LOWER($%d)", len(args)))
	}
	if currency != "" {
		args = append(args, currency)
		conditions = append(conditions, fmt.Sprintf("LOWER(currency_code) = LOWER($%d)", len(args)))
	}

	query := `SELECT * FROM countries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if sort == "gdp_desc" {
		query += " ORDER BY estimated_gdp DESC NULLS LAST"
	} else {
		query += " ORDER BY id"
	}

	countries := []models.Country{}
	if err := r.db.SelectContext(ctx, &countries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

func (r *CountryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM countries`); err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return total, nil
}

// LatestRefreshedAt returns nil when no country has been stored yet.
func (r *CountryRepository) LatestRefreshedAt(ctx context.Context) (*time.Time, error) {
	var last time.Time
	query := `SELECT last_refreshed_at FROM countries ORDER BY last_refreshed_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &last, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest refresh time: %w", err)
	}
	return &last, nil
}
