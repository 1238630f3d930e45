package training_test

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	trainingmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/training"
	"github.com/frahmantamala/course-enrollment/internal/training"
)

func TestTraining(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Training Suite")
}

type mockSessionRepository struct {
	mu           sync.Mutex
	sessions     map[int64]*trainingmodel.Session
	participants map[int64][]int64
	videos       map[int64][]*trainingmodel.Video
	nextID       int64
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		sessions:     make(map[int64]*trainingmodel.Session),
		participants: make(map[int64][]int64),
		videos:       make(map[int64][]*trainingmodel.Video),
		nextID:       1,
	}
}

func (m *mockSessionRepository) CreateSession(s *trainingmodel.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	m.nextID++
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockSessionRepository) GetSessionByID(id int64) (*trainingmodel.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionRepository) ListSessions(params training.ListParams) ([]*trainingmodel.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*trainingmodel.Session
	for _, s := range m.sessions {
		if params.Instructor != "" && s.Instructor != params.Instructor {
			continue
		}
		if params.Category != "" && s.Category != params.Category {
			continue
		}
		if params.FromDate != nil && s.StartTime.Before(*params.FromDate) {
			continue
		}
		copied := *s
		matched = append(matched, &copied)
	}
	return matched, int64(len(matched)), nil
}

func (m *mockSessionRepository) ListUpcoming(from time.Time, limit int) ([]*trainingmodel.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*trainingmodel.Session
	for _, s := range m.sessions {
		if s.Status == trainingmodel.SessionStatusUpcoming && s.StartTime.After(from) {
			copied := *s
			matched = append(matched, &copied)
		}
	}
	// soonest first, like the ORDER BY in the real repository
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].StartTime.Before(matched[i].StartTime) {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *mockSessionRepository) UpdateSessionFields(id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			s.Title = v.(string)
		case "description":
			s.Description = v.(string)
		case "start_time":
			s.StartTime = v.(time.Time)
		case "end_time":
			s.EndTime = v.(time.Time)
		case "status":
			s.Status = v.(string)
		}
	}
	return nil
}

func (m *mockSessionRepository) AddParticipant(p *trainingmodel.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.SessionID] = append(m.participants[p.SessionID], p.UserID)
	return nil
}

func (m *mockSessionRepository) IsParticipant(sessionID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range m.participants[sessionID] {
		if uid == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSessionRepository) AddVideo(v *trainingmodel.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.nextID
	m.nextID++
	copied := *v
	m.videos[v.SessionID] = append(m.videos[v.SessionID], &copied)
	return nil
}

func (m *mockSessionRepository) ListVideos(sessionID int64) ([]*trainingmodel.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*trainingmodel.Video
	for _, v := range m.videos[sessionID] {
		copied := *v
		out = append(out, &copied)
	}
	return out, nil
}

type fakeVideoStore struct {
	failKeys map[string]bool
}

func (f *fakeVideoStore) StreamURL(storageKey string) (string, error) {
	if f.failKeys[storageKey] {
		return "", errors.New("object not found")
	}
	return "https://cdn.example.com/videos/" + storageKey, nil
}

var _ = Describe("Training Service", func() {
	var (
		repo    *mockSessionRepository
		store   *fakeVideoStore
		service *training.Service
		logger  *slog.Logger
	)

	BeforeEach(func() {
		repo = newMockSessionRepository()
		store = &fakeVideoStore{failKeys: make(map[string]bool)}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = training.NewService(repo, store, logger)
	})

	validCreateDTO := func() training.CreateSessionDTO {
		return training.CreateSessionDTO{
			Title:      "Backhoe Basics",
			Instructor: "kwame",
			Category:   "backhoe",
			StartTime:  time.Now().Add(48 * time.Hour),
			EndTime:    time.Now().Add(50 * time.Hour),
		}
	}

	Describe("CreateSession", func() {
		It("should create an upcoming session with validated fields", func() {
			session, err := service.CreateSession(validCreateDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(session.ID).NotTo(BeZero())
			Expect(session.Status).To(Equal(trainingmodel.SessionStatusUpcoming))
			Expect(session.Category).To(Equal("backhoe"))
		})

		It("should default the category when not provided", func() {
			dto := validCreateDTO()
			dto.Category = ""

			session, err := service.CreateSession(dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(session.Category).To(Equal(trainingmodel.Categories[0]))
		})

		It("should reject an unknown category", func() {
			dto := validCreateDTO()
			dto.Category = "helicopter"

			_, err := service.CreateSession(dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("category must be one of"))
		})

		It("should reject a start time in the past", func() {
			dto := validCreateDTO()
			dto.StartTime = time.Now().Add(-time.Hour)

			_, err := service.CreateSession(dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("start time must be in the future"))
		})

		It("should reject an end time before the start time", func() {
			dto := validCreateDTO()
			dto.EndTime = dto.StartTime.Add(-time.Minute)

			_, err := service.CreateSession(dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("end time must be after start time"))
		})
	})

	Describe("UpcomingSessions", func() {
		It("should list only upcoming sessions, soonest first", func() {
			later := validCreateDTO()
			later.Title = "Crane Advanced"
			later.StartTime = time.Now().Add(96 * time.Hour)
			later.EndTime = time.Now().Add(98 * time.Hour)
			laterSession, err := service.CreateSession(later)
			Expect(err).NotTo(HaveOccurred())

			sooner, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			cancelled := validCreateDTO()
			cancelled.Title = "Cancelled One"
			cancelledSession, err := service.CreateSession(cancelled)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.CancelSession(cancelledSession.ID)).To(Succeed())

			upcoming, err := service.UpcomingSessions(10)

			Expect(err).NotTo(HaveOccurred())
			Expect(upcoming).To(HaveLen(2))
			Expect(upcoming[0].ID).To(Equal(sooner.ID))
			Expect(upcoming[1].ID).To(Equal(laterSession.ID))
		})
	})

	Describe("Enroll", func() {
		It("should enroll a user into an upcoming session", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			err = service.Enroll(session.ID, 42)

			Expect(err).NotTo(HaveOccurred())
			enrolled, _ := repo.IsParticipant(session.ID, 42)
			Expect(enrolled).To(BeTrue())
		})

		It("should refuse double enrollment", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Enroll(session.ID, 42)).To(Succeed())

			err = service.Enroll(session.ID, 42)

			Expect(err).To(MatchError(training.ErrAlreadyEnrolled))
		})

		It("should refuse enrollment into a cancelled session", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(service.CancelSession(session.ID)).To(Succeed())

			err = service.Enroll(session.ID, 42)

			Expect(err).To(MatchError(training.ErrSessionNotUpcoming))
		})

		It("should return not found for an unknown session", func() {
			err := service.Enroll(9999, 42)

			Expect(err).To(MatchError(training.ErrSessionNotFound))
		})
	})

	Describe("UpdateSession", func() {
		It("should apply only the provided fields", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			newTitle := "Backhoe Basics II"
			updated, err := service.UpdateSession(session.ID, training.UpdateSessionDTO{Title: &newTitle})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Title).To(Equal("Backhoe Basics II"))
			Expect(updated.Instructor).To(Equal(session.Instructor))
			Expect(updated.Status).To(Equal(session.Status))
		})

		It("should reject an empty update", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateSession(session.ID, training.UpdateSessionDTO{})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no updatable fields"))
		})

		It("should reject an invalid status value", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			bogus := "postponed"
			_, err = service.UpdateSession(session.ID, training.UpdateSessionDTO{Status: &bogus})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status must be one of"))
		})
	})

	Describe("SessionVideos", func() {
		It("should resolve stream URLs through the video store", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddVideo(session.ID, training.AddVideoDTO{
				Title:      "Day 1: Controls",
				StorageKey: "sessions/1/day1.mp4",
				Duration:   1800,
			})
			Expect(err).NotTo(HaveOccurred())

			videos, err := service.SessionVideos(session.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(videos).To(HaveLen(1))
			Expect(videos[0].StreamURL).To(Equal("https://cdn.example.com/videos/sessions/1/day1.mp4"))
			Expect(videos[0].Duration).To(Equal(int64(1800)))
		})

		It("should skip videos whose stream URL cannot be resolved", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddVideo(session.ID, training.AddVideoDTO{Title: "Good", StorageKey: "ok.mp4"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.AddVideo(session.ID, training.AddVideoDTO{Title: "Broken", StorageKey: "missing.mp4"})
			Expect(err).NotTo(HaveOccurred())
			store.failKeys["missing.mp4"] = true

			videos, err := service.SessionVideos(session.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(videos).To(HaveLen(1))
			Expect(videos[0].Title).To(Equal("Good"))
		})

		It("should reject videos without a storage key", func() {
			session, err := service.CreateSession(validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddVideo(session.ID, training.AddVideoDTO{Title: "No Key"})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("storage_key is required"))
		})
	})
})
