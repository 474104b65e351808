package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/pkg/jobs"
	"github.com/makeyourchoice/electives-api/pkg/storage"
)

type mockPrioritiesLister struct {
	records []models.PriorityRecord
}

func (m *mockPrioritiesLister) ListLatest(ctx context.Context) ([]models.PriorityRecord, error) {
	return m.records, nil
}

// syncQueue executes jobs inline so tests stay deterministic.
type syncQueue struct {
	handler jobs.Handler
}

func (q *syncQueue) Enqueue(job jobs.Job) error {
	return q.handler(context.Background(), job)
}

func exportFixture(t *testing.T, records []models.PriorityRecord) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(&mockPrioritiesLister{records: records}, store, signer, zap.NewNop())
	svc.AttachQueue(&syncQueue{handler: svc.Process})
	return svc
}

func sampleRecords() []models.PriorityRecord {
	return []models.PriorityRecord{
		{
			Email: "s.ivanov@innopolis.university",
			Tech:  pq.StringArray{"Machine Learning", "Introduction to Computer Vision"},
			Hum:   pq.StringArray{"Philosophy"},
		},
		{
			Email: "a.petrov@innopolis.university",
			Tech:  pq.StringArray{"Compilers"},
		},
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	svc := exportFixture(t, sampleRecords())

	job, err := svc.Request(context.Background(), "dean@innopolis.university", models.ExportFormatCSV)
	require.NoError(t, err)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExportStatusCompleted, status.Status)
	require.NotEmpty(t, status.DownloadURL)

	file, name, err := svc.Download(status.DownloadURL)
	require.NoError(t, err)
	defer file.Close()
	assert.True(t, strings.HasSuffix(name, ".csv"))

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "s.ivanov@innopolis.university")
	// Cells carry abbreviations, the legend maps them back.
	assert.Contains(t, body, "ML")
	assert.Contains(t, body, "ML,Machine Learning")
}

func TestExportPDF(t *testing.T) {
	svc := exportFixture(t, sampleRecords())

	job, err := svc.Request(context.Background(), "dean@innopolis.university", models.ExportFormatPDF)
	require.NoError(t, err)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusCompleted, status.Status)

	file, name, err := svc.Download(status.DownloadURL)
	require.NoError(t, err)
	defer file.Close()
	assert.True(t, strings.HasSuffix(name, ".pdf"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := exportFixture(t, nil)

	_, err := svc.Request(context.Background(), "dean@innopolis.university", models.ExportFormat("xlsx"))
	require.Error(t, err)
}

func TestExportDownloadRejectsTamperedToken(t *testing.T) {
	svc := exportFixture(t, sampleRecords())

	job, err := svc.Request(context.Background(), "dean@innopolis.university", models.ExportFormatCSV)
	require.NoError(t, err)

	status, err := svc.Status(job.ID)
	require.NoError(t, err)

	_, _, err = svc.Download(status.DownloadURL + "x")
	require.Error(t, err)
}

func TestExportStatusUnknownJob(t *testing.T) {
	svc := exportFixture(t, nil)

	_, err := svc.Status("missing")
	require.Error(t, err)
}

func TestBuildPrioritiesDataset(t *testing.T) {
	dataset := BuildPrioritiesDataset(sampleRecords())

	assert.Equal(t, []string{"Email", "Tech 1", "Tech 2", "Hum 1"}, dataset.Headers)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "ML", dataset.Rows[0]["Tech 1"])
	assert.Equal(t, "Machine Learning", dataset.Legend["ML"])
	assert.Equal(t, "Introduction to Computer Vision", dataset.Legend["ITCV"])
}
