package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_ChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	k1, err := cacheKey(path)
	require.NoError(t, err)

	// Same size, different mtime.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	k2, err := cacheKey(path)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestCache_RoundTrip(t *testing.T) {
	cacheDir := t.TempDir()
	res := &reocrResult{
		Image:     "page.png",
		TotalDue:  "125.43",
		Addresses: []string{"123 Peach St, Atlanta, GA 30303"},
		Zipcodes:  []string{"30303"},
	}

	saveCached(cacheDir, "abc123", res)
	loaded := loadCached(cacheDir, "abc123")
	require.NotNil(t, loaded)
	assert.Equal(t, res, loaded)

	assert.Nil(t, loadCached(cacheDir, "missing"))
}

func TestGatherImages_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.PNG", "notes.txt", "c.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	sub := filepath.Join(dir, "pages")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "d.jpeg"), []byte("x"), 0o644))

	images, err := gatherImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 4)
	for _, img := range images {
		assert.NotContains(t, img, "notes.txt")
	}
}

func TestWriteReocrCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.csv")
	results := []*reocrResult{
		{Image: "a.png", TotalDue: "10.00", Addresses: []string{"x", "y"}, Zipcodes: []string{"30303"}},
		nil, // a worker that never produced a result
		{Image: "b.png", Description: "Land Lot 42"},
	}

	require.NoError(t, writeReocrCSV(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Image,Total Due,Addresses,Zipcodes,Description")
	assert.Contains(t, content, "a.png,10.00,x | y,30303,")
	assert.Contains(t, content, "b.png,,,,Land Lot 42")
}
