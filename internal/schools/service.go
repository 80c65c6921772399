package schools

import (
	"context"
	"log/slog"
	"strings"
)

// CreateInput carries fields for a new school.
type CreateInput struct {
	Name    string `json:"name" validate:"required,min=3,max=160"`
	Address string `json:"address" validate:"max=240"`
}

// UpdateInput patches an existing school. Nil fields are left untouched.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=160"`
	Address  *string `json:"address" validate:"omitempty,max=240"`
	IsActive *bool   `json:"is_active"`
}

// Service contains school business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds a school Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]School, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*School, error) {
	return s.repo.Get(ctx, id)
}

// SchoolName reports the display name for id. It backs report exports.
func (s *Service) SchoolName(ctx context.Context, id int64) (string, error) {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return school.Name, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*School, error) {
	school := &School{
		Name:     strings.TrimSpace(input.Name),
		Address:  strings.TrimSpace(input.Address),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, err
	}
	s.logger.Info("school created", "school_id", school.ID, "name", school.Name)
	return school, nil
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*School, error) {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		school.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		school.Address = strings.TrimSpace(*input.Address)
	}
	if input.IsActive != nil {
		school.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

// LogoObject returns the stored logo blob reference.
func (s *Service) LogoObject(ctx context.Context, id int64) (string, error) {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return school.LogoObject, nil
}

// SetLogoObject records the stored object key for the school logo.
func (s *Service) SetLogoObject(ctx context.Context, id int64, objectKey string) error {
	school, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	school.LogoObject = objectKey
	return s.repo.Update(ctx, school)
}
