package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"estatehub-backend/internal/domain"
	"estatehub-backend/internal/repository"

	"github.com/google/uuid"
)

const joinCodeAttempts = 20

type estateService struct {
	dir      repository.Directory
	joinCode func() (string, error)
	now      func() time.Time
}

func NewEstateService(dir repository.Directory) EstateService {
	return &estateService{dir: dir, joinCode: randomJoinCode, now: time.Now}
}

// randomJoinCode returns EST- followed by six digits.
func randomJoinCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EST-%06d", n.Int64()), nil
}

func (s *estateService) RegisterAccount(ctx context.Context, personID string, role domain.Role, name, email string) (*domain.Person, error) {
	name = strings.TrimSpace(name)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	_, err := s.dir.Persons().GetByID(ctx, personID)
	if err == nil {
		return nil, domain.ErrAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	now := s.now()
	person := &domain.Person{
		ID:                 personID,
		Role:               role,
		Name:               name,
		Email:              strings.TrimSpace(email),
		VerificationStatus: domain.VerificationUnset,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.dir.Persons().Create(ctx, person); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	return person, nil
}

func (s *estateService) GetPerson(ctx context.Context, personID string) (*domain.Person, error) {
	return getPerson(ctx, s.dir, personID)
}

// CreateEstate issues an estate with a fresh join code. Codes are probed
// before insert; a duplicate raced in by a concurrent insert is reported as a
// conflict since the failed insert may have aborted the transaction.
func (s *estateService) CreateEstate(ctx context.Context, managerID, name, address string) (*domain.Estate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: estate name is required", domain.ErrInvalidInput)
	}

	_, err := s.dir.Estates().GetByManager(ctx, managerID)
	if err == nil {
		return nil, domain.ErrEstateAlreadyOwned
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get estate: %w", err)
	}

	code, err := s.freeJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	estate := &domain.Estate{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   strings.TrimSpace(address),
		ManagerID: managerID,
		JoinCode:  code,
		CreatedAt: s.now(),
	}
	if err := s.dir.Estates().Create(ctx, estate); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("failed to create estate: %w", err)
	}
	return estate, nil
}

func (s *estateService) freeJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := s.joinCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		_, err = s.dir.Estates().GetByJoinCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check join code: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %d attempts collided", domain.ErrJoinCodeUnavailable, joinCodeAttempts)
}

func (s *estateService) GetEstate(ctx context.Context, estateID string) (*domain.Estate, error) {
	estate, err := s.dir.Estates().GetByID(ctx, estateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get estate: %w", notFoundAs(err, domain.ErrEstateNotFound))
	}
	return estate, nil
}

func (s *estateService) EstateOfManager(ctx context.Context, managerID string) (*domain.Estate, error) {
	estate, err := s.dir.Estates().GetByManager(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get estate: %w", notFoundAs(err, domain.ErrEstateNotFound))
	}
	return estate, nil
}

func (s *estateService) CreateUnit(ctx context.Context, estateID, label string, bedroomCount int32, kind string) (*domain.Unit, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: unit label is required", domain.ErrInvalidInput)
	}
	if bedroomCount < 0 {
		return nil, fmt.Errorf("%w: bedroom count must not be negative", domain.ErrInvalidInput)
	}

	now := s.now()
	unit := &domain.Unit{
		ID:           uuid.NewString(),
		EstateID:     estateID,
		Label:        label,
		BedroomCount: bedroomCount,
		Kind:         strings.TrimSpace(kind),
		Status:       domain.UnitStatusVacant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.dir.Units().Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}
