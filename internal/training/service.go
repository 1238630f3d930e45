package training

import (
	"log/slog"
	"time"

	trainingmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/training"
)

type Repository interface {
	CreateSession(s *trainingmodel.Session) error
	GetSessionByID(id int64) (*trainingmodel.Session, error)
	ListSessions(params ListParams) ([]*trainingmodel.Session, int64, error)
	ListUpcoming(from time.Time, limit int) ([]*trainingmodel.Session, error)
	UpdateSessionFields(id int64, fields map[string]interface{}) error
	AddParticipant(p *trainingmodel.Participant) error
	IsParticipant(sessionID, userID int64) (bool, error)
	AddVideo(v *trainingmodel.Video) error
	ListVideos(sessionID int64) ([]*trainingmodel.Video, error)
}

// VideoStore resolves stored video keys into client-facing stream URLs.
// The storage backend itself (upload, transcoding) sits behind this
// contract.
type VideoStore interface {
	StreamURL(storageKey string) (string, error)
}

type Service struct {
	repo   Repository
	videos VideoStore
	logger *slog.Logger
}

func NewService(repo Repository, videos VideoStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		videos: videos,
		logger: logger,
	}
}

func (s *Service) CreateSession(dto CreateSessionDTO) (*trainingmodel.Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	category := dto.Category
	if category == "" {
		category = trainingmodel.Categories[0]
	}

	session := &trainingmodel.Session{
		Title:       dto.Title,
		Instructor:  dto.Instructor,
		Description: dto.Description,
		Category:    category,
		Status:      trainingmodel.SessionStatusUpcoming,
		StartTime:   dto.StartTime,
		EndTime:     dto.EndTime,
	}

	if err := s.repo.CreateSession(session); err != nil {
		s.logger.Error("failed to create training session", "error", err, "title", dto.Title)
		return nil, err
	}

	s.logger.Info("training session created",
		"session_id", session.ID,
		"title", session.Title,
		"instructor", session.Instructor,
		"start_time", session.StartTime)
	return session, nil
}

func (s *Service) GetSession(id int64) (*trainingmodel.Session, error) {
	session, err := s.repo.GetSessionByID(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns a filtered, paginated page of sessions.
func (s *Service) ListSessions(params ListParams) ([]*trainingmodel.Session, int64, error) {
	params.Normalize()
	return s.repo.ListSessions(params)
}

// UpcomingSessions lists sessions that have not started yet, soonest first.
func (s *Service) UpcomingSessions(limit int) ([]*trainingmodel.Session, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListUpcoming(time.Now(), limit)
}

// Enroll adds a user to an upcoming session. Double enrollment and
// enrollment into started/cancelled sessions are refused.
func (s *Service) Enroll(sessionID, userID int64) error {
	session, err := s.repo.GetSessionByID(sessionID)
	if err != nil {
		return ErrSessionNotFound
	}

	if session.Status != trainingmodel.SessionStatusUpcoming || !session.StartTime.After(time.Now()) {
		return ErrSessionNotUpcoming
	}

	enrolled, err := s.repo.IsParticipant(sessionID, userID)
	if err != nil {
		s.logger.Error("participant check failed", "error", err, "session_id", sessionID, "user_id", userID)
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}

	participant := &trainingmodel.Participant{
		SessionID: sessionID,
		UserID:    userID,
	}
	if err := s.repo.AddParticipant(participant); err != nil {
		s.logger.Error("failed to enroll participant", "error", err, "session_id", sessionID, "user_id", userID)
		return err
	}

	s.logger.Info("participant enrolled", "session_id", sessionID, "user_id", userID)
	return nil
}

// UpdateSession applies the whitelisted fields from the DTO; anything not
// in the DTO cannot be changed through this path.
func (s *Service) UpdateSession(id int64, dto UpdateSessionDTO) (*trainingmodel.Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetSessionByID(id); err != nil {
		return nil, ErrSessionNotFound
	}

	fields := map[string]interface{}{}
	if dto.Title != nil {
		fields["title"] = *dto.Title
	}
	if dto.Description != nil {
		fields["description"] = *dto.Description
	}
	if dto.StartTime != nil {
		fields["start_time"] = *dto.StartTime
	}
	if dto.EndTime != nil {
		fields["end_time"] = *dto.EndTime
	}
	if dto.Status != nil {
		fields["status"] = *dto.Status
	}

	if err := s.repo.UpdateSessionFields(id, fields); err != nil {
		s.logger.Error("failed to update session", "error", err, "session_id", id)
		return nil, err
	}

	return s.repo.GetSessionByID(id)
}

// CancelSession marks a session cancelled; it stays in the table for the
// participants' history.
func (s *Service) CancelSession(id int64) error {
	status := trainingmodel.SessionStatusCancelled
	_, err := s.UpdateSession(id, UpdateSessionDTO{Status: &status})
	return err
}

func (s *Service) AddVideo(sessionID int64, dto AddVideoDTO) (*trainingmodel.Video, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetSessionByID(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}

	video := &trainingmodel.Video{
		SessionID:  sessionID,
		Title:      dto.Title,
		StorageKey: dto.StorageKey,
		Duration:   dto.Duration,
		Thumbnail:  dto.Thumbnail,
	}
	if err := s.repo.AddVideo(video); err != nil {
		s.logger.Error("failed to add session video", "error", err, "session_id", sessionID)
		return nil, err
	}

	s.logger.Info("session video added", "session_id", sessionID, "video_id", video.ID, "storage_key", video.StorageKey)
	return video, nil
}

// SessionVideos resolves each stored video into a streamable view.
func (s *Service) SessionVideos(sessionID int64) ([]VideoView, error) {
	if _, err := s.repo.GetSessionByID(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}

	videos, err := s.repo.ListVideos(sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		url, err := s.videos.StreamURL(v.StorageKey)
		if err != nil {
			s.logger.Warn("could not resolve stream url", "error", err, "video_id", v.ID, "storage_key", v.StorageKey)
			continue
		}
		views = append(views, VideoView{
			ID:        v.ID,
			Title:     v.Title,
			StreamURL: url,
			Duration:  v.Duration,
			Thumbnail: v.Thumbnail,
		})
	}

	return views, nil
}
