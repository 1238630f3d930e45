package job

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	jobmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/job"
)

// CreatePostingDTO is the admin payload for publishing a job posting.
type CreatePostingDTO struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func (dto CreatePostingDTO) Validate() error {
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.Company == "" {
		return errors.New("company is required")
	}
	return nil
}

// ApplyDTO is the applicant payload against a posting. Skills travel as an
// array and are stored as JSON.
type ApplyDTO struct {
	FullName  string   `json:"full_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Skills    []string `json:"skills"`
	ResumeURL string   `json:"resume_url"`
}

func (dto ApplyDTO) Validate() error {
	if dto.FullName == "" {
		return errors.New("full_name is required")
	}
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(dto.Skills) == 0 {
		return errors.New("at least one skill is required")
	}
	if dto.ResumeURL == "" {
		return errors.New("resume_url is required")
	}
	parsed, err := url.Parse(dto.ResumeURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return errors.New("resume_url must be a valid http(s) URL")
	}
	return nil
}

// UpdateApplicationStatusDTO moves an application along its review pipeline.
type UpdateApplicationStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateApplicationStatusDTO) Validate() error {
	switch dto.Status {
	case jobmodel.ApplicationStatusUnderReview,
		jobmodel.ApplicationStatusAccepted,
		jobmodel.ApplicationStatusRejected:
		return nil
	default:
		return fmt.Errorf("status must be one of: %s, %s, %s",
			jobmodel.ApplicationStatusUnderReview,
			jobmodel.ApplicationStatusAccepted,
			jobmodel.ApplicationStatusRejected)
	}
}

// ApplicationView is the applicant projection with skills decoded back
// into an array.
type ApplicationView struct {
	ID        int64     `json:"id"`
	PostingID int64     `json:"posting_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Skills    []string  `json:"skills"`
	ResumeURL string    `json:"resume_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListPostingsParams narrows posting listings.
type ListPostingsParams struct {
	Category string
	Status   string
	Page     int
	PerPage  int
}

func (p *ListPostingsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
}

// Domain errors
var (
	ErrPostingNotFound     = errors.New("job posting not found")
	ErrPostingClosed       = errors.New("job posting is closed")
	ErrAlreadyApplied      = errors.New("user already applied to this posting")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("application status transition not allowed")
)
