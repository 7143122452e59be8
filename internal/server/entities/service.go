package entities

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/google/uuid"
)

var entityTypePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validEntityType(entityType string) error {
	if !entityTypePattern.MatchString(entityType) {
		return fmt.Errorf("%w: %q", common.ErrInvalidEntityType, entityType)
	}
	return nil
}

// Upsert stores p for userID. A payload without an id gets a fresh one.
func (s *Service) Upsert(ctx context.Context, userID, entityType string, p models.Payload) (models.Payload, error) {
	if err := validEntityType(entityType); err != nil {
		return nil, err
	}

	p = p.Clone()
	if p == nil {
		p = models.Payload{}
	}
	if models.PrimaryKey(p) == "" {
		p[models.IDField] = uuid.NewString()
	}

	stored, err := s.repo.Upsert(ctx, userID, entityType, p)
	if err != nil {
		return nil, fmt.Errorf("error storing %s: %w", entityType, err)
	}
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, userID, entityType, id string) (bool, error) {
	if err := validEntityType(entityType); err != nil {
		return false, err
	}
	if id == "" {
		return false, common.ErrMissingID
	}

	existed, err := s.repo.Delete(ctx, userID, entityType, id)
	if err != nil {
		return false, fmt.Errorf("error deleting %s %s: %w", entityType, id, err)
	}
	return existed, nil
}

func (s *Service) ListAll(ctx context.Context, userID, entityType string) ([]models.Payload, error) {
	if err := validEntityType(entityType); err != nil {
		return nil, err
	}

	records, err := s.repo.ListAll(ctx, userID, entityType)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", entityType, err)
	}
	return records, nil
}
