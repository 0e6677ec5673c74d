package services

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"country-service/internal/models"
	"country-service/internal/repository"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const summaryImageName = "summary.png"

const summaryTopCount = 5

type ISummaryImageService interface {
	Regenerate(ctx context.Context) error
	ImagePath() string
}

type SummaryImageService struct {
	repo     repository.ICountryRepository
	cacheDir string
}

func NewSummaryImageService(repo repository.ICountryRepository, cacheDir string) ISummaryImageService {
	return &SummaryImageService{
		repo:     repo,
		cacheDir: cacheDir,
	}
}

// ImagePath is the well-known artifact location served by the image endpoint.
func (s *SummaryImageService) ImagePath() string {
	return filepath.Join(s.cacheDir, summaryImageName)
}

// Regenerate rewrites the summary image from current storage: total count,
// top countries by estimated GDP and the latest refresh timestamp. The file
// is written to a temp path first so readers never see a half-written image.
func (s *SummaryImageService) Regenerate(ctx context.Context) error {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count countries for summary: %w", err)
	}

	top, err := s.repo.List(ctx, "", "", "gdp_desc")
	if err != nil {
		return fmt.Errorf("failed to list countries for summary: %w", err)
	}
	if len(top) > summaryTopCount {
		top = top[:summaryTopCount]
	}

	last, err := s.repo.LatestRefreshedAt(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest refresh time for summary: %w", err)
	}

	refreshedAt := ""
	if last != nil {
		refreshedAt = models.FormatTimestamp(*last)
	}
	img := renderSummary(total, top, refreshedAt)

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpPath := s.ImagePath() + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create summary image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode summary image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close summary image file: %w", err)
	}
	if err := os.Rename(tmpPath, s.ImagePath()); err != nil {
		return fmt.Errorf("failed to move summary image into place: %w", err)
	}

	slog.Info("Summary image regenerated", "path", s.ImagePath(), "total_countries", total)
	return nil
}

func renderSummary(total int, top []models.Country, refreshedAt string) *image.RGBA {
	const width, height = 640, 360

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	lines := []string{
		"Country Data Summary",
		fmt.Sprintf("Total countries: %d", total),
		"",
		"Top countries by estimated GDP:",
	}
	for i, c := range top {
		gdp := "n/a"
		if c.EstimatedGDP != nil {
			gdp = fmt.Sprintf("%.2f", *c.EstimatedGDP)
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, c.Name, gdp))
	}
	if refreshedAt != "" {
		lines = append(lines, "", "Last refreshed: "+refreshedAt)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	y := 30
	for _, line := range lines {
		drawer.Dot = fixed.P(20, y)
		drawer.DrawString(line)
		y += 24
	}
	return img
}
