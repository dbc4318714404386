package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classroll/classroll-api/internal/models"
	"github.com/classroll/classroll-api/pkg/config"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
)

type studentRepository interface {
	Count(ctx context.Context) (int, error)
	FindByRoll(ctx context.Context, rollNumber string) (*models.Student, error)
	BulkInsert(ctx context.Context, students []models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// StudentService serves the directory and provisions the demo roster on an
// empty database.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// GetByRoll returns one directory entry.
func (s *StudentService) GetByRoll(ctx context.Context, rollNumber string) (*models.Student, error) {
	student, err := s.repo.FindByRoll(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns directory entries matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return s.repo.List(ctx, filter)
}

// Seed provisions the roster when the directory is empty: numbered student
// accounts plus one admin. A non-empty directory is left untouched, so the
// seed is safe to run on every boot.
func (s *StudentService) Seed(ctx context.Context, cfg config.SeedConfig) error {
	existing, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("check roster: %w", err)
	}
	if existing > 0 {
		return nil
	}

	now := time.Now().UTC()
	students := make([]models.Student, 0, cfg.StudentCount+1)
	for i := 1; i <= cfg.StudentCount; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("pass%d", i)), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		students = append(students, models.Student{
			RollNumber:   fmt.Sprintf("%d", i),
			FullName:     fmt.Sprintf("Student %d", i),
			ClassName:    cfg.ClassName,
			Role:         models.RoleStudent,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if cfg.AdminLogin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		students = append(students, models.Student{
			RollNumber:   cfg.AdminLogin,
			FullName:     "Administrator",
			ClassName:    cfg.ClassName,
			Role:         models.RoleAdmin,
			PasswordHash: string(hash),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.repo.BulkInsert(ctx, students); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}
	s.logger.Info("roster seeded",
		zap.Int("students", cfg.StudentCount),
		zap.String("class", cfg.ClassName))
	return nil
}
