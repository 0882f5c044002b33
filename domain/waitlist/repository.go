package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/atelier-waitlist/internal/models"
	"github.com/akeren/atelier-waitlist/pkg/circuitbreaker"
	"github.com/akeren/atelier-waitlist/pkg/constants"
	apperrors "github.com/akeren/atelier-waitlist/pkg/errors"
	"github.com/akeren/atelier-waitlist/pkg/postgrest"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// FindByEmail returns the entry whose email equals the given value, or (nil, nil) when there is none.
	FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	// Create appends one row. A uniqueness rejection from the store is reported as a conflict error.
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// restRepository talks to the hosted table service.
type restRepository struct {
	client *postgrest.Client
}

func NewRESTWaitlistRepository(client *postgrest.Client) WaitlistRepository {
	return &restRepository{client: client}
}

func (r *restRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var rows []models.WaitlistEntry

	err := r.client.From(constants.WaitlistTable).
		Select("email").
		Eq("email", email).
		Limit(1).
		Execute(ctx, &rows)
	if err != nil {
		return nil, upstreamError("unable to look up waitlist entry", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return &rows[0], nil
}

func (r *restRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry == nil {
		return apperrors.NewInvalidRequestError("entry cannot be nil", nil)
	}

	err := r.client.From(constants.WaitlistTable).Insert(ctx, []models.WaitlistEntry{*entry})
	if err != nil {
		if postgrest.IsUniqueViolation(err) {
			return apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return upstreamError("unable to create waitlist entry", err)
	}

	return nil
}

func (r *restRepository) Ping(ctx context.Context) error {
	var rows []models.WaitlistEntry

	if err := r.client.From(constants.WaitlistTable).Select("email").Limit(1).Execute(ctx, &rows); err != nil {
		return upstreamError("waitlist table unreachable", err)
	}

	return nil
}

func upstreamError(message string, err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewUnavailableError(message, err)
	}
	return apperrors.NewUpstreamError(message, err)
}

// gormRepository reaches the same table over a direct SQL connection.
type gormRepository struct {
	db *gorm.DB
}

func NewGormWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	err := r.db.WithContext(ctx).Select("email").Where("email = ?", email).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewDatabaseError("failed to fetch waitlist entry", err)
	}

	return &entry, nil
}

func (r *gormRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry == nil {
		return apperrors.NewInvalidRequestError("entry cannot be nil", nil)
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return nil
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return apperrors.NewDatabaseError("failed to get database instance", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseError("database unreachable", err)
	}

	return nil
}
