package services

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"country-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryImage_RegenerateWritesDecodablePNG(t *testing.T) {
	gdp := 1234.56
	now := time.Now().UTC()
	repo := &fakeRepo{
		total: 2,
		countries: []models.Country{
			{Name: "Togo", EstimatedGDP: &gdp},
			{Name: "Benin"},
		},
		last: &now,
	}

	dir := t.TempDir()
	svc := NewSummaryImageService(repo, dir)

	require.NoError(t, svc.Regenerate(context.Background()))

	assert.Equal(t, filepath.Join(dir, "summary.png"), svc.ImagePath())

	f, err := os.Open(svc.ImagePath())
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err, "artifact must be a valid PNG")
	assert.False(t, img.Bounds().Empty())
}

func TestSummaryImage_NoLeftoverTempFile(t *testing.T) {
	repo := &fakeRepo{}
	dir := t.TempDir()
	svc := NewSummaryImageService(repo, dir)

	require.NoError(t, svc.Regenerate(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "summary.png", entries[0].Name())
}
