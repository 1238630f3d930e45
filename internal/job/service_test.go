package job_test

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	jobmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/job"
	"github.com/frahmantamala/course-enrollment/internal/job"
)

func TestJob(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Job Suite")
}

type mockJobRepository struct {
	mu           sync.Mutex
	postings     map[int64]*jobmodel.Posting
	applications map[int64]*jobmodel.Application
	nextID       int64
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{
		postings:     make(map[int64]*jobmodel.Posting),
		applications: make(map[int64]*jobmodel.Application),
		nextID:       1,
	}
}

func (m *mockJobRepository) CreatePosting(p *jobmodel.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	copied := *p
	m.postings[p.ID] = &copied
	return nil
}

func (m *mockJobRepository) GetPostingByID(id int64) (*jobmodel.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockJobRepository) ListPostings(params job.ListPostingsParams) ([]*jobmodel.Posting, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*jobmodel.Posting
	for _, p := range m.postings {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		copied := *p
		matched = append(matched, &copied)
	}
	return matched, int64(len(matched)), nil
}

func (m *mockJobRepository) UpdatePostingFields(id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := fields["status"]; ok {
		p.Status = status.(string)
	}
	return nil
}

func (m *mockJobRepository) CreateApplication(a *jobmodel.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	copied := *a
	m.applications[a.ID] = &copied
	return nil
}

func (m *mockJobRepository) GetApplicationByID(id int64) (*jobmodel.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockJobRepository) HasApplied(postingID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.applications {
		if a.PostingID == postingID && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockJobRepository) ListApplications(postingID int64) ([]*jobmodel.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*jobmodel.Application
	for _, a := range m.applications {
		if a.PostingID == postingID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockJobRepository) UpdateApplicationStatus(id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	return nil
}

var _ = Describe("Job Service", func() {
	var (
		repo    *mockJobRepository
		service *job.Service
	)

	BeforeEach(func() {
		repo = newMockJobRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = job.NewService(repo, logger)
	})

	validApplyDTO := func() job.ApplyDTO {
		return job.ApplyDTO{
			FullName:  "Ama Mensah",
			Email:     "ama@example.com",
			Phone:     "+233200000001",
			Skills:    []string{"backhoe", "excavator"},
			ResumeURL: "https://files.example.com/resumes/ama.pdf",
		}
	}

	createOpenPosting := func() *jobmodel.Posting {
		posting, err := service.CreatePosting(job.CreatePostingDTO{
			Title:    "Backhoe Operator",
			Company:  "Accra Earthworks",
			Location: "Accra",
			Category: "backhoe",
		})
		Expect(err).NotTo(HaveOccurred())
		return posting
	}

	Describe("CreatePosting", func() {
		It("should create an open posting", func() {
			posting := createOpenPosting()

			Expect(posting.ID).NotTo(BeZero())
			Expect(posting.Status).To(Equal(jobmodel.PostingStatusOpen))
		})

		It("should reject a posting without a company", func() {
			_, err := service.CreatePosting(job.CreatePostingDTO{Title: "Operator"})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("company is required"))
		})
	})

	Describe("Apply", func() {
		It("should submit an application with skills stored as JSON", func() {
			posting := createOpenPosting()

			application, err := service.Apply(posting.ID, 7, validApplyDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(application.Status).To(Equal(jobmodel.ApplicationStatusSubmitted))
			Expect(application.Skills).To(Equal([]string{"backhoe", "excavator"}))

			stored := repo.applications[application.ID]
			Expect(stored.Skills).To(MatchJSON(`["backhoe","excavator"]`))
		})

		It("should refuse an application against an unknown posting", func() {
			_, err := service.Apply(9999, 7, validApplyDTO())

			Expect(err).To(MatchError(job.ErrPostingNotFound))
		})

		It("should refuse an application against a closed posting", func() {
			posting := createOpenPosting()
			Expect(service.ClosePosting(posting.ID)).To(Succeed())

			_, err := service.Apply(posting.ID, 7, validApplyDTO())

			Expect(err).To(MatchError(job.ErrPostingClosed))
		})

		It("should refuse a second application from the same user", func() {
			posting := createOpenPosting()
			_, err := service.Apply(posting.ID, 7, validApplyDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Apply(posting.ID, 7, validApplyDTO())

			Expect(err).To(MatchError(job.ErrAlreadyApplied))
		})

		It("should require at least one skill", func() {
			posting := createOpenPosting()
			dto := validApplyDTO()
			dto.Skills = nil

			_, err := service.Apply(posting.ID, 7, dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("at least one skill"))
		})

		It("should require a valid resume URL", func() {
			posting := createOpenPosting()
			dto := validApplyDTO()
			dto.ResumeURL = "not-a-url"

			_, err := service.Apply(posting.ID, 7, dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("resume_url"))
		})
	})

	Describe("Applicants", func() {
		It("should list every application against a posting", func() {
			posting := createOpenPosting()
			_, err := service.Apply(posting.ID, 7, validApplyDTO())
			Expect(err).NotTo(HaveOccurred())

			second := validApplyDTO()
			second.FullName = "Kofi Boateng"
			second.Email = "kofi@example.com"
			_, err = service.Apply(posting.ID, 8, second)
			Expect(err).NotTo(HaveOccurred())

			applicants, err := service.Applicants(posting.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(applicants).To(HaveLen(2))
		})
	})

	Describe("UpdateApplicationStatus", func() {
		submit := func() *job.ApplicationView {
			posting := createOpenPosting()
			application, err := service.Apply(posting.ID, 7, validApplyDTO())
			Expect(err).NotTo(HaveOccurred())
			return application
		}

		It("should move submitted to under_review, then to accepted", func() {
			application := submit()

			reviewed, err := service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusUnderReview,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reviewed.Status).To(Equal(jobmodel.ApplicationStatusUnderReview))

			accepted, err := service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusAccepted,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted.Status).To(Equal(jobmodel.ApplicationStatusAccepted))
		})

		It("should refuse skipping straight from submitted to accepted", func() {
			application := submit()

			_, err := service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusAccepted,
			})

			Expect(err).To(MatchError(job.ErrInvalidTransition))
		})

		It("should refuse any move out of a decided application", func() {
			application := submit()
			_, err := service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusUnderReview,
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusRejected,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: jobmodel.ApplicationStatusAccepted,
			})

			Expect(err).To(MatchError(job.ErrInvalidTransition))
		})

		It("should reject an unknown status value", func() {
			application := submit()

			_, err := service.UpdateApplicationStatus(application.ID, job.UpdateApplicationStatusDTO{
				Status: "shredded",
			})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status must be one of"))
		})
	})
})
