package postgres

import (
	"time"

	"gorm.io/gorm"

	jobmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/job"
	jobpkg "github.com/frahmantamala/course-enrollment/internal/job"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) jobpkg.Repository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreatePosting(p *jobmodel.Posting) error {
	return r.db.Create(p).Error
}

func (r *JobRepository) GetPostingByID(id int64) (*jobmodel.Posting, error) {
	var posting jobmodel.Posting
	if err := r.db.First(&posting, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &posting, nil
}

func (r *JobRepository) ListPostings(params jobpkg.ListPostingsParams) ([]*jobmodel.Posting, int64, error) {
	query := r.db.Model(&jobmodel.Posting{})

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var postings []*jobmodel.Posting
	offset := (params.Page - 1) * params.PerPage
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(params.PerPage).
		Find(&postings).Error
	if err != nil {
		return nil, 0, err
	}

	return postings, total, nil
}

func (r *JobRepository) UpdatePostingFields(id int64, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	result := r.db.Model(&jobmodel.Posting{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *JobRepository) CreateApplication(a *jobmodel.Application) error {
	return r.db.Create(a).Error
}

func (r *JobRepository) GetApplicationByID(id int64) (*jobmodel.Application, error) {
	var application jobmodel.Application
	if err := r.db.First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *JobRepository) HasApplied(postingID, userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&jobmodel.Application{}).
		Where("posting_id = ? AND user_id = ?", postingID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *JobRepository) ListApplications(postingID int64) ([]*jobmodel.Application, error) {
	var applications []*jobmodel.Application
	err := r.db.
		Where("posting_id = ?", postingID).
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *JobRepository) UpdateApplicationStatus(id int64, status string) error {
	result := r.db.Model(&jobmodel.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
