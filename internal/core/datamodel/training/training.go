package training

import "time"

// Session is one scheduled training session. Participants are stored in a
// join table; Videos belong to the session.
type Session struct {
	ID          int64     `gorm:"primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Instructor  string    `gorm:"column:instructor;not null;index"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category;default:backhoe"`
	Status      string    `gorm:"column:status;default:upcoming;index"`
	StartTime   time.Time `gorm:"column:start_time;index"`
	EndTime     time.Time `gorm:"column:end_time"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

func (Session) TableName() string {
	return "training_sessions"
}

type Participant struct {
	ID        int64     `gorm:"primaryKey"`
	SessionID int64     `gorm:"column:session_id;not null;uniqueIndex:idx_session_user"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_session_user"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Participant) TableName() string {
	return "training_participants"
}

// Video is instructional-video metadata; the binary itself lives behind
// the VideoStore contract, referenced by StorageKey.
type Video struct {
	ID         int64     `gorm:"primaryKey"`
	SessionID  int64     `gorm:"column:session_id;not null;index"`
	Title      string    `gorm:"column:title;not null"`
	StorageKey string    `gorm:"column:storage_key;not null"`
	Duration   int64     `gorm:"column:duration_seconds"`
	Thumbnail  string    `gorm:"column:thumbnail"`
	UploadedAt time.Time `gorm:"column:uploaded_at;default:now()"`
}

func (Video) TableName() string {
	return "training_videos"
}

const (
	SessionStatusUpcoming  = "upcoming"
	SessionStatusOngoing   = "ongoing"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

var Categories = []string{"backhoe", "excavator", "forklift", "long_truck", "crane"}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
