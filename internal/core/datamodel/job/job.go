package job

import "time"

const (
	ApplicationStatusSubmitted   = "submitted"
	ApplicationStatusUnderReview = "under_review"
	ApplicationStatusAccepted    = "accepted"
	ApplicationStatusRejected    = "rejected"
)

const (
	PostingStatusOpen   = "open"
	PostingStatusClosed = "closed"
)

type Posting struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Company     string    `json:"company" gorm:"not null"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status" gorm:"not null;default:open"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Posting) TableName() string {
	return "job_postings"
}

type Application struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	PostingID int64     `json:"posting_id" gorm:"not null;uniqueIndex:idx_posting_user"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_posting_user"`
	FullName  string    `json:"full_name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null"`
	Phone     string    `json:"phone"`
	Skills    string    `json:"-" gorm:"type:jsonb"`
	ResumeURL string    `json:"resume_url" gorm:"not null"`
	Status    string    `json:"status" gorm:"not null;default:submitted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Application) TableName() string {
	return "job_applications"
}

// NextStatuses returns the allowed transitions from a given application
// status. submitted → under_review → accepted|rejected.
func NextStatuses(from string) []string {
	switch from {
	case ApplicationStatusSubmitted:
		return []string{ApplicationStatusUnderReview}
	case ApplicationStatusUnderReview:
		return []string{ApplicationStatusAccepted, ApplicationStatusRejected}
	default:
		return nil
	}
}

func CanTransition(from, to string) bool {
	for _, allowed := range NextStatuses(from) {
		if allowed == to {
			return true
		}
	}
	return false
}
