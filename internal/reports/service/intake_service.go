package service

import (
	"context"
	"errors"
	"mime/multipart"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/reports/repository"
	"github.com/efren319/GovFunds/internal/uploads"
)

// ImageStore persists uploaded images; uploads.Manager implements it.
type ImageStore interface {
	Save(ctx context.Context, kind uploads.Kind, fh *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, key string)
}

// Recorder counts submissions by kind and outcome; *metrics.Metrics implements it.
type Recorder interface {
	Submission(kind, outcome string)
}

const (
	KindFeedback = "feedback"
	KindReport   = "report"
	KindContact  = "contact"
)

// ReportInput is a citizen report as submitted by the feedback form.
type ReportInput struct {
	ProjectID     int64
	ReporterName  string
	ReporterEmail string
	Subject       string
	Message       string
	Type          string
}

// ContactMessage is a contact-form submission. It is acknowledged and logged only.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// IntakeService validates and persists public submissions.
type IntakeService struct {
	repo    *repository.ReportRepository
	images  ImageStore
	metrics Recorder
}

func NewIntakeService(repo *repository.ReportRepository, images ImageStore, metrics Recorder) *IntakeService {
	return &IntakeService{repo: repo, images: images, metrics: metrics}
}

func (s *IntakeService) record(kind string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "accepted"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, apperrors.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "failed"
	}
	s.metrics.Submission(kind, outcome)
}

// SubmitFeedback stores a general comment. The message is required.
func (s *IntakeService) SubmitFeedback(ctx context.Context, name, email, message string) (*domain.Feedback, error) {
	f := &domain.Feedback{Name: name, Email: email, Message: message}
	err := s.repo.CreateFeedback(ctx, f)
	s.record(KindFeedback, err)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("feedback submitted", zap.Int64("feedback_id", f.ID))
	return f, nil
}

// SubmitReport stores a report against an existing project, with an optional image.
// The image is removed again when the report cannot be written.
func (s *IntakeService) SubmitReport(ctx context.Context, in ReportInput, image *multipart.FileHeader) (*domain.ProjectReport, error) {
	rep := &domain.ProjectReport{
		ProjectID:     in.ProjectID,
		ReporterName:  in.ReporterName,
		ReporterEmail: in.ReporterEmail,
		Subject:       in.Subject,
		Message:       in.Message,
		Type:          domain.ReportType(in.Type),
	}
	if err := rep.Validate(); err != nil {
		s.record(KindReport, err)
		return nil, err
	}

	key, err := s.images.Save(ctx, uploads.KindReport, image)
	if err != nil {
		s.record(KindReport, err)
		return nil, err
	}
	rep.Image = key

	if err := s.repo.CreateReport(ctx, rep); err != nil {
		s.images.Remove(ctx, key)
		s.record(KindReport, err)
		return nil, err
	}
	s.record(KindReport, nil)

	logging.FromContext(ctx).Info("report submitted",
		zap.Int64("report_id", rep.ID), zap.Int64("project_id", rep.ProjectID), zap.String("report_type", string(rep.Type)))
	return rep, nil
}

// Resolve marks a report resolved; repeating it is harmless.
func (s *IntakeService) Resolve(ctx context.Context, reportID int64) (*domain.ProjectReport, error) {
	rep, err := s.repo.Resolve(ctx, reportID)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("report resolved", zap.Int64("report_id", reportID))
	return rep, nil
}

func (s *IntakeService) ListUnresolved(ctx context.Context) ([]domain.UnresolvedReport, error) {
	return s.repo.ListUnresolved(ctx)
}

func (s *IntakeService) ListForProject(ctx context.Context, projectID int64) ([]domain.ProjectReport, error) {
	return s.repo.ListForProject(ctx, projectID)
}

func (s *IntakeService) RecentFeedback(ctx context.Context, limit int) ([]domain.Feedback, error) {
	return s.repo.RecentFeedback(ctx, limit)
}

func (s *IntakeService) UnresolvedCounts(ctx context.Context) (map[int64]int64, error) {
	return s.repo.UnresolvedCounts(ctx)
}

// SubmitContact validates a contact message and logs it. There is no mail transport.
func (s *IntakeService) SubmitContact(ctx context.Context, msg ContactMessage) error {
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)

	var err error
	switch {
	case msg.Email == "":
		err = apperrors.Required("email")
	case msg.Message == "":
		err = apperrors.Required("message")
	default:
		if _, perr := mail.ParseAddress(msg.Email); perr != nil {
			err = apperrors.Invalid("email", "is not a valid address")
		}
	}
	s.record(KindContact, err)
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("contact message received",
		zap.String("name", strings.TrimSpace(msg.Name)),
		zap.String("email", msg.Email),
		zap.String("subject", strings.TrimSpace(msg.Subject)),
		zap.Int("message_length", len(msg.Message)))
	return nil
}
