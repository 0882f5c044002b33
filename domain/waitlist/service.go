package waitlist

import (
	"context"
	"errors"
	"strings"

	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/akeren/atelier-waitlist/internal/models"
	apperrors "github.com/akeren/atelier-waitlist/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=service.go -destination=mock_service.go -package=waitlist

type WaitlistService interface {
	// Join checks whether email is already registered and inserts it when it is not.
	// It returns ErrAlreadyRegistered for a known email; any other error means the signup failed.
	Join(ctx context.Context, email string) error
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	metrics    *SignupMetrics
	tracer     trace.Tracer
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, metrics *SignupMetrics) WaitlistService {
	return &waitlistService{
		logger:     logger,
		repository: repository,
		metrics:    metrics,
		tracer:     otel.Tracer("github.com/akeren/atelier-waitlist/domain/waitlist"),
	}
}

func (s *waitlistService) Join(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "waitlist.Join")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if email == "" {
		logger.Error("Join received empty email")
		return ErrEmptyEmail
	}

	existing, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to check waitlist for existing entry", "email", maskEmail(email), "error", err)
		return s.fail(span, err)
	}

	if existing != nil {
		logger.Info("Email already on the waitlist", "email", maskEmail(email))
		return s.duplicate(span)
	}

	if err := s.repository.Create(ctx, &models.WaitlistEntry{Email: email}); err != nil {
		// Another session inserted the same email between our check and insert;
		// the table's uniqueness constraint caught it.
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			logger.Info("Insert rejected by uniqueness constraint", "email", maskEmail(email))
			return s.duplicate(span)
		}

		logger.Error("Failed to create waitlist entry", "email", maskEmail(email), "error", err)
		return s.fail(span, err)
	}

	logger.Info("Waitlist entry created", "email", maskEmail(email))
	s.metrics.observe(outcomeSuccess)
	span.SetAttributes(attribute.String("waitlist.outcome", outcomeSuccess))

	return nil
}

func (s *waitlistService) duplicate(span trace.Span) error {
	s.metrics.observe(outcomeDuplicate)
	span.SetAttributes(attribute.String("waitlist.outcome", outcomeDuplicate))
	return ErrAlreadyRegistered
}

func (s *waitlistService) fail(span trace.Span, err error) error {
	s.metrics.observe(outcomeFailure)
	span.SetAttributes(attribute.String("waitlist.outcome", outcomeFailure))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewInternalServerError("unable to join waitlist", err)
}

// maskEmail keeps the first character of the local part and the domain, e.g. "n***@x.com".
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
