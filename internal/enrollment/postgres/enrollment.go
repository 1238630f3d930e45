package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/course-enrollment/internal/core/datamodel/enrollment"
	enrollmentpkg "github.com/frahmantamala/course-enrollment/internal/enrollment"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) enrollmentpkg.RepositoryAPI {
	return &AccessRepository{
		db: db,
	}
}

func (r *AccessRepository) Create(access *enrollment.CourseAccess) error {
	return r.db.Create(access).Error
}

func (r *AccessRepository) GetByEmailAndCourse(email, course string) (*enrollment.CourseAccess, error) {
	var access enrollment.CourseAccess
	err := r.db.Where("email = ? AND course = ?", email, course).First(&access).Error
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *AccessRepository) GetByReference(reference string) (*enrollment.CourseAccess, error) {
	var access enrollment.CourseAccess
	err := r.db.Where("payment_reference = ?", reference).First(&access).Error
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *AccessRepository) ListByEmail(email string) ([]*enrollment.CourseAccess, error) {
	var grants []*enrollment.CourseAccess
	err := r.db.Where("email = ?", email).Order("granted_at DESC").Find(&grants).Error
	return grants, err
}
