package enrollment_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	enrollmentmodel "github.com/frahmantamala/course-enrollment/internal/core/datamodel/enrollment"
	"github.com/frahmantamala/course-enrollment/internal/core/events"
	enrollmentPkg "github.com/frahmantamala/course-enrollment/internal/enrollment"
)

func TestEnrollment(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Enrollment Module Suite")
}

type mockAccessRepository struct {
	byReference map[string]*enrollmentmodel.CourseAccess
	createError error
}

func newMockAccessRepository() *mockAccessRepository {
	return &mockAccessRepository{
		byReference: make(map[string]*enrollmentmodel.CourseAccess),
	}
}

func (m *mockAccessRepository) Create(access *enrollmentmodel.CourseAccess) error {
	if m.createError != nil {
		return m.createError
	}
	access.ID = int64(len(m.byReference) + 1)
	m.byReference[access.PaymentReference] = access
	return nil
}

func (m *mockAccessRepository) GetByEmailAndCourse(email, course string) (*enrollmentmodel.CourseAccess, error) {
	for _, a := range m.byReference {
		if a.Email == email && a.Course == course {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAccessRepository) GetByReference(reference string) (*enrollmentmodel.CourseAccess, error) {
	a, ok := m.byReference[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (m *mockAccessRepository) ListByEmail(email string) ([]*enrollmentmodel.CourseAccess, error) {
	var out []*enrollmentmodel.CourseAccess
	for _, a := range m.byReference {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ = Describe("EnrollmentService", func() {
	var (
		service  *enrollmentPkg.Service
		mockRepo *mockAccessRepository
		logger   *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockRepo = newMockAccessRepository()
		service = enrollmentPkg.NewService(mockRepo, logger)
	})

	Describe("Grant", func() {
		Context("for a new confirmed payment", func() {
			It("should record course access", func() {
				// When
				err := service.Grant("student@example.com", "excavator", "ref-1", 50000)

				// Then
				Expect(err).ToNot(HaveOccurred())

				hasAccess, err := service.HasAccess("student@example.com", "excavator")
				Expect(err).ToNot(HaveOccurred())
				Expect(hasAccess).To(BeTrue())
			})
		})

		Context("when the same payment reference is granted twice", func() {
			It("should be a no-op the second time", func() {
				// Given
				Expect(service.Grant("student@example.com", "excavator", "ref-1", 50000)).To(Succeed())

				// When
				err := service.Grant("student@example.com", "excavator", "ref-1", 50000)

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(mockRepo.byReference).To(HaveLen(1))
			})
		})
	})

	Describe("HasAccess", func() {
		Context("without any confirmed payment", func() {
			It("should report no access", func() {
				// When
				hasAccess, err := service.HasAccess("student@example.com", "excavator")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(hasAccess).To(BeFalse())
			})
		})

		Context("with access to a different course", func() {
			It("should still report no access for the requested one", func() {
				// Given
				Expect(service.Grant("student@example.com", "forklift", "ref-1", 50000)).To(Succeed())

				// When
				hasAccess, err := service.HasAccess("student@example.com", "excavator")

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(hasAccess).To(BeFalse())
			})
		})
	})

	Describe("EventHandler", func() {
		Context("when a payment confirmed event arrives", func() {
			It("should grant access for the event's course", func() {
				// Given
				handler := enrollmentPkg.NewEventHandler(service, logger)
				event := events.NewPaymentConfirmedEvent("ref-1", "student@example.com", 50000, "excavator")

				// When
				err := handler.HandlePaymentConfirmed(context.Background(), event)

				// Then
				Expect(err).ToNot(HaveOccurred())
				hasAccess, err := service.HasAccess("student@example.com", "excavator")
				Expect(err).ToNot(HaveOccurred())
				Expect(hasAccess).To(BeTrue())
			})
		})

		Context("when a payment failed event arrives", func() {
			It("should never grant access", func() {
				// Given
				bus := events.NewEventBus(logger)
				handler := enrollmentPkg.NewEventHandler(service, logger)
				handler.RegisterEventHandlers(bus)

				// When
				err := bus.PublishSync(context.Background(), events.NewPaymentFailedEvent(
					"ref-2", "student@example.com", 50000, "amount_mismatch", "amount mismatch"))

				// Then
				Expect(err).ToNot(HaveOccurred())
				hasAccess, err := service.HasAccess("student@example.com", "excavator")
				Expect(err).ToNot(HaveOccurred())
				Expect(hasAccess).To(BeFalse())
			})
		})
	})
})
