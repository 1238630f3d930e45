package training

import (
	"errors"
	"fmt"
	"strings"
	"time"

	trainingmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/training"
)

// CreateSessionDTO represents the request payload for scheduling a session
type CreateSessionDTO struct {
	Title       string    `json:"title"`
	Instructor  string    `json:"instructor"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

func (dto CreateSessionDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.Instructor == "" {
		return errors.New("instructor is required")
	}
	if dto.Category != "" && !trainingmodel.IsValidCategory(dto.Category) {
		return fmt.Errorf("category must be one of: %s", strings.Join(trainingmodel.Categories, ", "))
	}
	if dto.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if !dto.StartTime.After(time.Now()) {
		return errors.New("start time must be in the future")
	}
	if !dto.EndTime.IsZero() && !dto.EndTime.After(dto.StartTime) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// UpdateSessionDTO carries the fields an instructor may change on an
// existing session. Everything else on the row is off limits.
type UpdateSessionDTO struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

func (dto UpdateSessionDTO) Validate() error {
	if dto.Title == nil && dto.Description == nil && dto.StartTime == nil && dto.EndTime == nil && dto.Status == nil {
		return errors.New("no updatable fields provided")
	}
	if dto.Title != nil && *dto.Title == "" {
		return errors.New("title cannot be empty")
	}
	if dto.Status != nil {
		switch *dto.Status {
		case trainingmodel.SessionStatusUpcoming, trainingmodel.SessionStatusOngoing,
			trainingmodel.SessionStatusCompleted, trainingmodel.SessionStatusCancelled:
		default:
			return errors.New("status must be one of: upcoming, ongoing, completed, cancelled")
		}
	}
	return nil
}

// AddVideoDTO registers video metadata against a session; the binary lives
// in the video store under StorageKey.
type AddVideoDTO struct {
	Title      string `json:"title"`
	StorageKey string `json:"storage_key"`
	Duration   int64  `json:"duration_seconds,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

func (dto AddVideoDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.StorageKey == "" {
		return errors.New("storage_key is required")
	}
	return nil
}

// ListParams narrows session listings.
type ListParams struct {
	Instructor string
	Category   string
	FromDate   *time.Time
	Page       int
	PerPage    int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
}

// VideoView is the session video projection with a resolvable stream URL.
type VideoView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StreamURL string `json:"stream_url"`
	Duration  int64  `json:"duration_seconds,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Domain errors
var (
	ErrSessionNotFound    = errors.New("training session not found")
	ErrSessionNotUpcoming = errors.New("session is not open for enrollment")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this session")
)
