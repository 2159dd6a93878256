package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
	"github.com/univlabs/campus-portal-api/pkg/export"
	"github.com/univlabs/campus-portal-api/pkg/jobs"
	"github.com/univlabs/campus-portal-api/pkg/storage"
)

type attendanceLister interface {
	ListAll(ctx context.Context) ([]models.SubjectAttendance, error)
}

type leaveLister interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error)
}

// ExportService renders attendance and leave reports asynchronously. Jobs are
// tracked in memory; completed files live on disk and are downloaded through
// short-lived signed tokens.
type ExportService struct {
	attendance attendanceLister
	leaves     leaveLister
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	storage    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	metrics    *MetricsService
	logger     *zap.Logger

	queue       *jobs.Queue
	retention   time.Duration
	janitor     chan struct{}
	janitorOnce sync.Once

	mu       sync.RWMutex
	jobsByID map[string]*models.ExportJob
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Attendance attendanceLister
	Leaves     leaveLister
	Storage    *storage.LocalStorage
	Signer     *storage.SignedURLSigner
	Metrics    *MetricsService
	Logger     *zap.Logger
	Workers    int
	Retries    int
	// Retention bounds how long rendered files stay on disk. Zero keeps
	// the 24h default.
	Retention time.Duration
}

func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retention := params.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	s := &ExportService{
		attendance: params.Attendance,
		leaves:     params.Leaves,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		storage:    params.Storage,
		signer:     params.Signer,
		metrics:    params.Metrics,
		logger:     logger,
		retention:  retention,
		janitor:    make(chan struct{}),
		jobsByID:   make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    params.Workers,
		MaxRetries: params.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers and the file janitor.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.sweep(ctx)
}

// Stop drains the export workers and stops the janitor.
func (s *ExportService) Stop() {
	s.queue.Stop()
	s.janitorOnce.Do(func() { close(s.janitor) })
}

// sweep removes rendered files that outlived the retention window. Signed
// links expire well before that, so nothing reachable is deleted.
func (s *ExportService) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.janitor:
			return
		case <-ticker.C:
			removed, err := s.storage.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("export files cleaned up", zap.Int("count", len(removed)))
			}
		}
	}
}

// ExportLink is the client view of a completed export.
type ExportLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Request queues a new export job.
func (s *ExportService) Request(ctx context.Context, exportType models.ExportType, requestedBy string) (*models.ExportJob, error) {
	if !exportType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unsupported export type %q", exportType))
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Type:        exportType,
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(exportType)}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	s.logger.Info("export queued", zap.String("job_id", job.ID), zap.String("type", string(exportType)))
	return s.snapshot(job.ID), nil
}

// Get returns the current state of a job.
func (s *ExportService) Get(ctx context.Context, id string) (*models.ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// Link issues a signed download token for a completed job.
func (s *ExportService) Link(ctx context.Context, id string) (*ExportLink, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("export is %s", job.Status))
	}
	token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &ExportLink{URL: token, ExpiresAt: expiresAt}, nil
}

// Resolve validates a signed token and returns the on-disk path to stream.
func (s *ExportService) Resolve(token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job := s.snapshot(jobID)
	if job == nil || job.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return s.storage.Path(relPath), nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	s.setStatus(job.ID, models.ExportStatusProcessing)

	var (
		data []byte
		name string
		err  error
	)
	switch models.ExportType(job.Type) {
	case models.ExportAttendanceCSV:
		data, err = s.renderAttendanceCSV(ctx)
		name = fmt.Sprintf("exports/attendance-%s.csv", job.ID)
	case models.ExportLeaveRegisterPDF:
		data, err = s.renderLeaveRegisterPDF(ctx)
		name = fmt.Sprintf("exports/leave-register-%s.pdf", job.ID)
	default:
		err = fmt.Errorf("unknown export type %q", job.Type)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	stored, err := s.storage.Save(name, data)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if j, ok := s.jobsByID[job.ID]; ok {
		j.Status = models.ExportStatusCompleted
		j.FilePath = stored
		j.Error = ""
		j.CompletedAt = &now
	}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordExportJob(job.Type, string(models.ExportStatusCompleted))
	}
	s.logger.Info("export completed", zap.String("job_id", job.ID), zap.String("file", stored))
	return nil
}

func (s *ExportService) renderAttendanceCSV(ctx context.Context) ([]byte, error) {
	records, err := s.attendance.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	table := export.Table{
		Columns: []string{"student_id", "subject", "attended", "total", "updated_at"},
	}
	for _, r := range records {
		if err := table.AddRow(
			r.StudentID,
			r.Subject,
			strconv.Itoa(r.Attended),
			strconv.Itoa(r.Total),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return nil, err
		}
	}
	return s.csv.Render(table)
}

func (s *ExportService) renderLeaveRegisterPDF(ctx context.Context) ([]byte, error) {
	requests, err := s.leaves.List(ctx, models.LeaveFilter{})
	if err != nil {
		return nil, err
	}
	table := export.Table{
		Title:   "Leave Register",
		Columns: []string{"student", "from", "to", "reason", "status"},
	}
	for _, r := range requests {
		if err := table.AddRow(
			r.StudentName,
			r.FromDate.Format("2006-01-02"),
			r.ToDate.Format("2006-01-02"),
			r.Reason,
			string(r.Status),
		); err != nil {
			return nil, err
		}
	}
	return s.pdf.Render(table)
}

func (s *ExportService) setStatus(id string, status models.ExportStatus) {
	s.mu.Lock()
	if j, ok := s.jobsByID[id]; ok {
		j.Status = status
	}
	s.mu.Unlock()
}

func (s *ExportService) fail(id string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	var jobType string
	if j, ok := s.jobsByID[id]; ok {
		j.Status = models.ExportStatusFailed
		j.Error = err.Error()
		j.CompletedAt = &now
		jobType = string(j.Type)
	}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordExportJob(jobType, string(models.ExportStatusFailed))
	}
	s.logger.Error("export failed", zap.String("job_id", id), zap.Error(err))
}

func (s *ExportService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobsByID[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
