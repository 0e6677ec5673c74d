package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"country-service/internal/cache"
	"country-service/internal/models"
	"country-service/internal/repository"
	"country-service/internal/services"

	"github.com/gin-gonic/gin"
)

const sampleInvalidsLimit = 5

type CountryHandler struct {
	refreshService services.ICountryRefreshService
	repo           repository.ICountryRepository
	imageService   services.ISummaryImageService
	cache          cache.ICountryCache
}

// NewCountryHandler wires the handler. cache may be nil when Redis is not
// configured; every endpoint then reads straight from the repository.
func NewCountryHandler(
	refreshService services.ICountryRefreshService,
	repo repository.ICountryRepository,
	imageService services.ISummaryImageService,
	countryCache cache.ICountryCache,
) *CountryHandler {
	return &CountryHandler{
		refreshService: refreshService,
		repo:           repo,
		imageService:   imageService,
		cache:          countryCache,
	}
}

func (h *CountryHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/checkhealth", func(c *gin.Context) {
		c.String(http.StatusOK, "Country service is healthy")
	})

	router.POST("/countries/refresh", h.RefreshCountries)
	router.GET("/countries", h.GetCountries)
	router.GET("/countries/status", h.GetStatus)
	router.GET("/countries/image", h.GetSummaryImage)
	router.GET("/countries/:name", h.GetCountry)
	router.DELETE("/countries/:name", h.DeleteCountry)
}

func jsonError(c *gin.Context, status int, message string, details any) {
	payload := gin.H{"error": message}
	if details != nil {
		payload["details"] = details
	}
	c.JSON(status, payload)
}

// RefreshCountries runs one refresh cycle and maps the outcome tier onto
// the tiered status-code contract: 200, 207, 400, 503 or 500.
func (h *CountryHandler) RefreshCountries(c *gin.Context) {
	outcome := h.refreshService.Refresh(c.Request.Context())

	// Stored data changed whenever the batch committed, even if a later
	// step failed, so cached payloads are stale regardless of the tier.
	if outcome.Committed {
		h.invalidateCache(c)
	}

	switch outcome.Tier {
	case services.TierUpstreamDown:
		jsonError(c, http.StatusServiceUnavailable,
			"External data source unavailable",
			fmt.Sprintf("Could not fetch data from %s", outcome.FailedSource))

	case services.TierAllInvalid:
		jsonError(c, http.StatusBadRequest,
			"Validation failed",
			gin.H{"error": "No valid country data found."})

	case services.TierInternalError:
		jsonError(c, http.StatusInternalServerError, "Internal server error", outcome.Err.Error())

	case services.TierPartial:
		sample := outcome.InvalidEntries
		if len(sample) > sampleInvalidsLimit {
			sample = sample[:sampleInvalidsLimit]
		}
		c.JSON(http.StatusMultiStatus, models.RefreshPartialResponse{
			Message:             "Refresh completed with some invalid entries.",
			TotalCountriesSaved: outcome.TotalInDB,
			InvalidEntriesCount: len(outcome.InvalidEntries),
			SampleInvalids:      sample,
			LastRefreshedAt:     models.FormatTimestamp(outcome.Now),
		})

	default:
		c.JSON(http.StatusOK, models.RefreshSuccessResponse{
			Message:         "Refresh successful",
			TotalCountries:  outcome.TotalInDB,
			LastRefreshedAt: models.FormatTimestamp(outcome.Now),
		})
	}
}

// GetCountries lists countries with optional region/currency filters and
// gdp_desc sorting.
func (h *CountryHandler) GetCountries(c *gin.Context) {
	region := c.Query("region")
	currency := c.Query("currency")
	sort := c.Query("sort")

	cacheKey := cache.ListKey(region, currency, sort)
	if h.cache != nil {
		if payload, ok := h.cache.GetPayload(c.Request.Context(), cacheKey); ok {
			c.Data(http.StatusOK, "application/json", payload)
			return
		}
	}

	countries, err := h.repo.List(c.Request.Context(), region, currency, sort)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	responses := make([]models.CountryResponse, 0, len(countries))
	for i := range countries {
		responses = append(responses, countries[i].ToResponse())
	}

	if h.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			h.cache.SetPayload(c.Request.Context(), cacheKey, payload)
		}
	}
	c.JSON(http.StatusOK, responses)
}

func (h *CountryHandler) GetCountry(c *gin.Context) {
	name := c.Param("name")

	country, err := h.repo.GetByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrCountryNotFound) {
			jsonError(c, http.StatusNotFound, "Country not found", nil)
			return
		}
		jsonError(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	c.JSON(http.StatusOK, country.ToResponse())
}

func (h *CountryHandler) DeleteCountry(c *gin.Context) {
	name := c.Param("name")

	if err := h.repo.DeleteByName(c.Request.Context(), name); err != nil {
		if errors.Is(err, repository.ErrCountryNotFound) {
			jsonError(c, http.StatusNotFound, "Country not found", nil)
			return
		}
		jsonError(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	h.invalidateCache(c)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s deleted successfully.", name)})
}

func (h *CountryHandler) GetStatus(c *gin.Context) {
	if h.cache != nil {
		if payload, ok := h.cache.GetPayload(c.Request.Context(), cache.StatusKey); ok {
			c.Data(http.StatusOK, "application/json", payload)
			return
		}
	}

	total, err := h.repo.Count(c.Request.Context())
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	last, err := h.repo.LatestRefreshedAt(c.Request.Context())
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	status := models.StatusResponse{TotalCountries: total}
	if last != nil {
		ts := models.FormatTimestamp(*last)
		status.LastRefreshedAt = &ts
	}

	if h.cache != nil {
		if payload, err := json.Marshal(status); err == nil {
			h.cache.SetPayload(c.Request.Context(), cache.StatusKey, payload)
		}
	}
	c.JSON(http.StatusOK, status)
}

// GetSummaryImage serves the artifact written by the image service. A
// missing file is a normal 404, not a pipeline error.
func (h *CountryHandler) GetSummaryImage(c *gin.Context) {
	path := h.imageService.ImagePath()
	if _, err := os.Stat(path); err != nil {
		jsonError(c, http.StatusNotFound, "Summary image not found", nil)
		return
	}
	c.File(path)
}

func (h *CountryHandler) invalidateCache(c *gin.Context) {
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context())
	}
}
