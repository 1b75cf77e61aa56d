package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/pkg/datefmt"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
	"github.com/noah-isme/library-console/pkg/export"
)

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled  bool
	PDFTitle string
}

// ExportResult is a rendered file ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders the operator's visible roster.
type ExportService struct {
	renderers map[string]datasetRenderer
	cfg       ExportConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService registers each renderer under its file extension.
func NewExportService(cfg ExportConfig, logger *zap.Logger, renderers ...datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byFormat := make(map[string]datasetRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ExportService{
		renderers: byFormat,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

var rosterHeaders = []string{"Name", "Student ID", "Email", "Phone", "Date of birth", "Category", "Status"}

// RosterDataset turns students into export rows in the given order.
func RosterDataset(students []models.Student) export.Dataset {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		dob, err := datefmt.ToCalendar(s.DateOfBirth)
		if err != nil {
			dob = s.DateOfBirth
		}
		category := s.CategoryValue()
		if embedded := s.Category.Embedded; embedded != nil && embedded.Name != "" {
			category = embedded.Name
		}
		rows = append(rows, []string{s.Name, s.StudentCode, s.Email, s.Phone, dob, category, banStatus(s)})
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows}
}

func banStatus(s models.Student) string {
	if !s.Banned {
		return "active"
	}
	if s.BannedUntil == nil {
		return "banned"
	}
	return "banned until " + s.BannedUntil.Format(datefmt.CalendarLayout)
}

// Export renders students in format ("csv", "pdf" or "xlsx").
func (s *ExportService) Export(students []models.Student, format string) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.WithField(appErrors.ErrValidation, "format", "unsupported export format "+format)
	}

	body, err := renderer.Render(RosterDataset(students), s.cfg.PDFTitle)
	if err != nil {
		s.logger.Error("roster export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("roster-%s.%s", s.now().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
		Rows:        len(students),
	}, nil
}
