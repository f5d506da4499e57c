package crawl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lien-harvester/internal/cancel"
	"github.com/jonathan/lien-harvester/internal/checkpoint"
	"github.com/jonathan/lien-harvester/internal/config"
	"github.com/jonathan/lien-harvester/internal/extractor"
	"github.com/jonathan/lien-harvester/internal/ocr"
	"github.com/jonathan/lien-harvester/internal/retry"
	"github.com/jonathan/lien-harvester/internal/sink"
	"github.com/jonathan/lien-harvester/internal/types"
)

func testConfig(t *testing.T) *config.Crawler {
	t.Helper()
	cfg := &config.Crawler{
		Username:  "user@example.com",
		Password:  "hunter2",
		OutputDir: t.TempDir(),
		StateFile: filepath.Join(t.TempDir(), "cookies.json"),
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRun_AllDoneCheckpointDoesNothing(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "checkpoint.csv")
	content := "url,status,search_name,entity_index,doc_index\n" +
		"https://search.gsccca.org/Lien/lienfinal.asp?b=1,Done,acme,1,1\n" +
		"https://search.gsccca.org/Lien/lienfinal.asp?b=2,Done,acme,1,2\n"
	require.NoError(t, os.WriteFile(ledger, []byte(content), 0o644))

	summary, err := Run(context.Background(), Options{
		Config:         testConfig(t),
		CheckpointPath: ledger,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Discovered)
	assert.Zero(t, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, dir, summary.Folder)
}

func TestRun_RequiresRequestOrCheckpoint(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: testConfig(t)})
	assert.Error(t, err)
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	cfg := &config.Crawler{}
	cfg.ApplyDefaults()
	_, err := Run(context.Background(), Options{Config: cfg})
	assert.Error(t, err)
}

func TestApplyRecognition_FillsDerivedFields(t *testing.T) {
	rec := &types.ExtractedRecord{Description: "from the detail page"}
	fields := ocr.Fields{
		RawText:     "TOTAL DUE 125.43",
		TotalDue:    "125.43",
		Description: "ignored, detail page wins",
		Addresses: []ocr.AddressCandidate{
			{Address: "123 Peach St, Atlanta, GA 30303", Zipcode: "30303"},
			{Address: "P.O. Box 9, Macon, GA 31201", Zipcode: "31201"},
		},
	}

	applyRecognition(context.Background(), stubRecognizer{fields: fields}, rec, [][]byte{[]byte("png")})

	assert.Equal(t, "125.43", rec.TotalDue)
	assert.Equal(t, "125.43", rec.OCRTotalDue)
	assert.Equal(t, "from the detail page", rec.Description)
	assert.Equal(t, "123 Peach St, Atlanta, GA 30303", rec.Address)
	assert.Equal(t, "30303", rec.Zipcode)
	assert.Len(t, rec.OCRAddress, 2)
	assert.Equal(t, "TOTAL DUE 125.43", rec.RawOCRText)
}

type stubRecognizer struct {
	fields ocr.Fields
}

func (s stubRecognizer) Recognize(context.Context, []byte) (ocr.Fields, error) {
	return s.fields, nil
}

func TestRun_EmptyCheckpointNeedsRequest(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "checkpoint.csv")
	content := "url,status,search_name,entity_index,doc_index\n"
	require.NoError(t, os.WriteFile(ledger, []byte(content), 0o644))

	_, err := Run(context.Background(), Options{
		Config:         testConfig(t),
		CheckpointPath: ledger,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no rows")
}

type failingExtractor struct {
	calls int
}

func (f *failingExtractor) Extract(types.DiscoveredURL) (*extractor.Result, error) {
	f.calls++
	return nil, errors.New("viewer never loaded")
}

func TestProcessRow_ExhaustedRetriesMarkRowDone(t *testing.T) {
	dir := t.TempDir()
	store, err := checkpoint.Open(filepath.Join(dir, "checkpoint.csv"))
	require.NoError(t, err)
	row := types.DiscoveredURL{
		URL:         "https://search.gsccca.org/Lien/lienfinal.asp?b=9",
		SearchName:  "acme",
		EntityIndex: 1,
		DocIndex:    1,
	}
	require.NoError(t, store.Append(row))

	results, err := sink.OpenCSV(filepath.Join(dir, "acme_results.csv"))
	require.NoError(t, err)
	defer results.Close()

	ext := &failingExtractor{}
	summary := &Summary{}
	err = processRow(context.Background(), cancel.None(), ext, stubRecognizer{}, results, store, row, summary, nil)
	require.NoError(t, err)

	assert.Equal(t, retry.DefaultAttempts, ext.calls)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Processed)
	assert.Empty(t, store.Pending())
	assert.True(t, store.AllDone())
}
