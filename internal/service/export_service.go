package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/models"
	appErrors "github.com/makeyourchoice/electives-api/pkg/errors"
	"github.com/makeyourchoice/electives-api/pkg/export"
	"github.com/makeyourchoice/electives-api/pkg/jobs"
)

type prioritiesLister interface {
	ListLatest(ctx context.Context) ([]models.PriorityRecord, error)
}

type renderFunc func(data export.Dataset) ([]byte, error)

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

const exportJobType = "priorities_export"

type exportPayload struct {
	JobID  string
	Format models.ExportFormat
}

// ExportService generates downloadable snapshots of the latest priorities.
// Generation runs in the background; the admin polls the job and fetches
// the file through a signed URL.
type ExportService struct {
	priorities prioritiesLister
	renderers  map[models.ExportFormat]renderFunc
	storage    exportStorage
	signer     urlSigner
	queue      jobQueue
	logger     *zap.Logger

	mu      sync.RWMutex
	jobsMap map[string]*models.ExportJob
}

// NewExportService constructs an ExportService.
func NewExportService(priorities prioritiesLister, storage exportStorage, signer urlSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()
	return &ExportService{
		priorities: priorities,
		renderers: map[models.ExportFormat]renderFunc{
			models.ExportFormatCSV: csvExporter.Render,
			models.ExportFormatPDF: func(data export.Dataset) ([]byte, error) {
				return pdfExporter.Render(data, "Elective Priorities")
			},
		},
		storage: storage,
		signer:  signer,
		logger:  logger,
		jobsMap: make(map[string]*models.ExportJob),
	}
}

// AttachQueue wires the background queue. The service's Process method is
// the queue handler.
func (s *ExportService) AttachQueue(queue jobQueue) {
	s.queue = queue
}

// Request registers an export job and queues its generation.
func (s *ExportService) Request(_ context.Context, requestedBy string, format models.ExportFormat) (*models.ExportJob, error) {
	if _, ok := s.renderers[format]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Format:      format,
		Status:      models.ExportStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobsMap[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    exportJobType,
		Payload: exportPayload{JobID: job.ID, Format: format},
	}); err != nil {
		s.markFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	return s.snapshot(job.ID), nil
}

// Process is the queue handler generating one export file.
func (s *ExportService) Process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}

	s.setStatus(payload.JobID, models.ExportStatusRunning)

	records, err := s.priorities.ListLatest(ctx)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return fmt.Errorf("load priorities: %w", err)
	}

	dataset := BuildPrioritiesDataset(records)

	render := s.renderers[payload.Format]
	data, err := render(dataset)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return fmt.Errorf("render export: %w", err)
	}

	filename := fmt.Sprintf("priorities-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), payload.JobID[:8], payload.Format)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(payload.JobID, relPath)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return fmt.Errorf("sign export url: %w", err)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if stored, ok := s.jobsMap[payload.JobID]; ok {
		stored.Status = models.ExportStatusCompleted
		stored.FilePath = relPath
		stored.DownloadURL = token
		stored.ExpiresAt = &expiresAt
		stored.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", payload.JobID),
		zap.String("format", string(payload.Format)),
		zap.Int("rows", len(records)))
	return nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*models.ExportJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// Download validates a signed token and opens the referenced file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}

	job := s.snapshot(jobID)
	if job == nil || job.Status != models.ExportStatusCompleted || job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return file, relPath, nil
}

// Cleanup removes export files older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) snapshot(jobID string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobsMap[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) setStatus(jobID string, status models.ExportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobsMap[jobID]; ok {
		job.Status = status
	}
}

func (s *ExportService) markFailed(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobsMap[jobID]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
	}
}

// BuildPrioritiesDataset flattens latest ballots into a table. Course
// titles are abbreviated in cells; the legend maps them back.
func BuildPrioritiesDataset(records []models.PriorityRecord) export.Dataset {
	maxTech, maxHum := 0, 0
	for _, record := range records {
		if len(record.Tech) > maxTech {
			maxTech = len(record.Tech)
		}
		if len(record.Hum) > maxHum {
			maxHum = len(record.Hum)
		}
	}

	headers := []string{"Email"}
	for i := 1; i <= maxTech; i++ {
		headers = append(headers, fmt.Sprintf("Tech %d", i))
	}
	for i := 1; i <= maxHum; i++ {
		headers = append(headers, fmt.Sprintf("Hum %d", i))
	}

	legend := make(map[string]string)
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := map[string]string{"Email": record.Email}
		for i, title := range record.Tech {
			abbr := export.Abbreviate(title)
			legend[abbr] = title
			row[fmt.Sprintf("Tech %d", i+1)] = abbr
		}
		for i, title := range record.Hum {
			abbr := export.Abbreviate(title)
			legend[abbr] = title
			row[fmt.Sprintf("Hum %d", i+1)] = abbr
		}
		rows = append(rows, row)
	}

	return export.Dataset{Headers: headers, Rows: rows, Legend: legend}
}
