package enrollment

import "time"

// CourseAccess is the durable "paid" flag: one row per confirmed payment
// granting a payer access to a course. Rows are only ever created from a
// confirmed transaction, never from a client claim.
type CourseAccess struct {
	ID               int64     `gorm:"primaryKey"`
	Email            string    `gorm:"column:email;not null;uniqueIndex:idx_email_course"`
	Course           string    `gorm:"column:course;not null;uniqueIndex:idx_email_course"`
	PaymentReference string    `gorm:"column:payment_reference;not null;uniqueIndex"`
	AmountPaid       int64     `gorm:"column:amount_paid;not null"`
	GrantedAt        time.Time `gorm:"column:granted_at;default:now()"`
}

func (CourseAccess) TableName() string {
	return "course_access"
}
