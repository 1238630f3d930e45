package job

import (
	"encoding/json"
	"log/slog"

	jobmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/job"
)

type Repository interface {
	CreatePosting(p *jobmodel.Posting) error
	GetPostingByID(id int64) (*jobmodel.Posting, error)
	ListPostings(params ListPostingsParams) ([]*jobmodel.Posting, int64, error)
	UpdatePostingFields(id int64, fields map[string]interface{}) error
	CreateApplication(a *jobmodel.Application) error
	GetApplicationByID(id int64) (*jobmodel.Application, error)
	HasApplied(postingID, userID int64) (bool, error)
	ListApplications(postingID int64) ([]*jobmodel.Application, error)
	UpdateApplicationStatus(id int64, status string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreatePosting(dto CreatePostingDTO) (*jobmodel.Posting, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	posting := &jobmodel.Posting{
		Title:       dto.Title,
		Company:     dto.Company,
		Location:    dto.Location,
		Description: dto.Description,
		Category:    dto.Category,
		Status:      jobmodel.PostingStatusOpen,
	}
	if err := s.repo.CreatePosting(posting); err != nil {
		s.logger.Error("failed to create job posting", "error", err, "title", dto.Title)
		return nil, err
	}

	s.logger.Info("job posting created", "posting_id", posting.ID, "title", posting.Title, "company", posting.Company)
	return posting, nil
}

func (s *Service) GetPosting(id int64) (*jobmodel.Posting, error) {
	posting, err := s.repo.GetPostingByID(id)
	if err != nil {
		return nil, ErrPostingNotFound
	}
	return posting, nil
}

func (s *Service) ListPostings(params ListPostingsParams) ([]*jobmodel.Posting, int64, error) {
	params.Normalize()
	return s.repo.ListPostings(params)
}

// ClosePosting stops new applications; existing ones keep moving through
// review.
func (s *Service) ClosePosting(id int64) error {
	if _, err := s.repo.GetPostingByID(id); err != nil {
		return ErrPostingNotFound
	}
	return s.repo.UpdatePostingFields(id, map[string]interface{}{
		"status": jobmodel.PostingStatusClosed,
	})
}

// Apply submits an application against an open posting. The posting must
// exist, the user may apply once, and skills are stored as a JSON array.
func (s *Service) Apply(postingID, userID int64, dto ApplyDTO) (*ApplicationView, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	posting, err := s.repo.GetPostingByID(postingID)
	if err != nil {
		return nil, ErrPostingNotFound
	}
	if posting.Status != jobmodel.PostingStatusOpen {
		return nil, ErrPostingClosed
	}

	applied, err := s.repo.HasApplied(postingID, userID)
	if err != nil {
		s.logger.Error("application check failed", "error", err, "posting_id", postingID, "user_id", userID)
		return nil, err
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	skillsJSON, err := json.Marshal(dto.Skills)
	if err != nil {
		return nil, err
	}

	application := &jobmodel.Application{
		PostingID: postingID,
		UserID:    userID,
		FullName:  dto.FullName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Skills:    string(skillsJSON),
		ResumeURL: dto.ResumeURL,
		Status:    jobmodel.ApplicationStatusSubmitted,
	}
	if err := s.repo.CreateApplication(application); err != nil {
		s.logger.Error("failed to create application", "error", err, "posting_id", postingID, "user_id", userID)
		return nil, err
	}

	s.logger.Info("application submitted", "application_id", application.ID, "posting_id", postingID, "user_id", userID)
	return toApplicationView(application), nil
}

// Applicants lists every application against a posting, for review.
func (s *Service) Applicants(postingID int64) ([]*ApplicationView, error) {
	if _, err := s.repo.GetPostingByID(postingID); err != nil {
		return nil, ErrPostingNotFound
	}

	applications, err := s.repo.ListApplications(postingID)
	if err != nil {
		return nil, err
	}

	views := make([]*ApplicationView, 0, len(applications))
	for _, a := range applications {
		views = append(views, toApplicationView(a))
	}
	return views, nil
}

// UpdateApplicationStatus moves an application through its review
// pipeline. Only forward transitions are allowed.
func (s *Service) UpdateApplicationStatus(applicationID int64, dto UpdateApplicationStatusDTO) (*ApplicationView, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	application, err := s.repo.GetApplicationByID(applicationID)
	if err != nil {
		return nil, ErrApplicationNotFound
	}

	if !jobmodel.CanTransition(application.Status, dto.Status) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateApplicationStatus(applicationID, dto.Status); err != nil {
		s.logger.Error("failed to update application status", "error", err, "application_id", applicationID)
		return nil, err
	}

	application.Status = dto.Status
	s.logger.Info("application status updated", "application_id", applicationID, "status", dto.Status)
	return toApplicationView(application), nil
}

func toApplicationView(a *jobmodel.Application) *ApplicationView {
	var skills []string
	if a.Skills != "" {
		if err := json.Unmarshal([]byte(a.Skills), &skills); err != nil {
			skills = nil
		}
	}
	return &ApplicationView{
		ID:        a.ID,
		PostingID: a.PostingID,
		FullName:  a.FullName,
		Email:     a.Email,
		Phone:     a.Phone,
		Skills:    skills,
		ResumeURL: a.ResumeURL,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}
