package enrollment

import (
	goerrors "errors"
	"log/slog"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/enrollment"
)

type RepositoryAPI interface {
	Create(access *enrollment.CourseAccess) error
	GetByEmailAndCourse(email, course string) (*enrollment.CourseAccess, error)
	GetByReference(reference string) (*enrollment.CourseAccess, error)
	ListByEmail(email string) ([]*enrollment.CourseAccess, error)
}

type ServiceAPI interface {
	Grant(email, course, reference string, amount int64) error
	HasAccess(email, course string) (bool, error)
	ListForEmail(email string) ([]*enrollment.CourseAccess, error)
}

// Service is the access gate: it records which payer may reach which
// course. Grants happen only off the back of a confirmed payment; nothing
// here trusts caller input about payment state.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Grant records course access for a confirmed payment. Granting twice for
// the same reference is a no-op, so replayed confirmation events stay safe.
func (s *Service) Grant(email, course, reference string, amount int64) error {
	existing, err := s.repo.GetByReference(reference)
	if err != nil && !goerrors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("access lookup failed", "error", err, "reference", reference)
		return errors.NewInternalError("could not check course access", err)
	}
	if existing != nil {
		s.logger.Info("access already granted for reference",
			"reference", reference,
			"email", email,
			"course", course)
		return nil
	}

	access := &enrollment.CourseAccess{
		Email:            email,
		Course:           course,
		PaymentReference: reference,
		AmountPaid:       amount,
	}

	if err := s.repo.Create(access); err != nil {
		s.logger.Error("failed to grant course access",
			"error", err,
			"email", email,
			"course", course,
			"reference", reference)
		return errors.NewInternalError("could not grant course access", err)
	}

	s.logger.Info("course access granted",
		"email", email,
		"course", course,
		"reference", reference,
		"amount", amount)
	return nil
}

func (s *Service) HasAccess(email, course string) (bool, error) {
	_, err := s.repo.GetByEmailAndCourse(email, course)
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("access check failed", "error", err, "email", email, "course", course)
		return false, errors.NewInternalError("could not check course access", err)
	}
	return true, nil
}

func (s *Service) ListForEmail(email string) ([]*enrollment.CourseAccess, error) {
	grants, err := s.repo.ListByEmail(email)
	if err != nil {
		s.logger.Error("access listing failed", "error", err, "email", email)
		return nil, errors.NewInternalError("could not list course access", err)
	}
	return grants, nil
}
