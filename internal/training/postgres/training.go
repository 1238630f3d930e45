package postgres

import (
	"time"

	"gorm.io/gorm"

	trainingmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/training"
	trainingpkg "github.com/frahmantamala/course-enrollment/internal/training"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) trainingpkg.Repository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(s *trainingmodel.Session) error {
	return r.db.Create(s).Error
}

func (r *SessionRepository) GetSessionByID(id int64) (*trainingmodel.Session, error) {
	var session trainingmodel.Session
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) ListSessions(params trainingpkg.ListParams) ([]*trainingmodel.Session, int64, error) {
	query := r.db.Model(&trainingmodel.Session{})

	if params.Instructor != "" {
		query = query.Where("instructor = ?", params.Instructor)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.FromDate != nil {
		query = query.Where("start_time >= ?", *params.FromDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []*trainingmodel.Session
	offset := (params.Page - 1) * params.PerPage
	err := query.
		Order("start_time ASC").
		Offset(offset).
		Limit(params.PerPage).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *SessionRepository) ListUpcoming(from time.Time, limit int) ([]*trainingmodel.Session, error) {
	var sessions []*trainingmodel.Session
	err := r.db.
		Where("status = ? AND start_time > ?", trainingmodel.SessionStatusUpcoming, from).
		Order("start_time ASC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) UpdateSessionFields(id int64, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	result := r.db.Model(&trainingmodel.Session{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SessionRepository) AddParticipant(p *trainingmodel.Participant) error {
	return r.db.Create(p).Error
}

func (r *SessionRepository) IsParticipant(sessionID, userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&trainingmodel.Participant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *SessionRepository) AddVideo(v *trainingmodel.Video) error {
	return r.db.Create(v).Error
}

func (r *SessionRepository) ListVideos(sessionID int64) ([]*trainingmodel.Video, error) {
	var videos []*trainingmodel.Video
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("uploaded_at ASC").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}
