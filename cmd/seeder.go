package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := gorm.Open(gormpostgres.Open(cfg.Database.Source), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{
				"training_participants", "training_videos", "training_sessions",
				"job_applications", "job_postings",
				"course_access", "payment_transactions", "users",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, "kwabena", "kwabena@mail.com", string(hash), "Kumasi Technical Institute", "undergraduate")
		seedUser(db, "admin", "admin@mail.com", string(hash), "", "admin")

		sessions := []struct {
			Title      string
			Instructor string
			Category   string
			StartDays  int
		}{
			{"Backhoe Fundamentals", "kofi.owusu", "backhoe", 7},
			{"Excavator Operation Level 1", "ama.darko", "excavator", 14},
			{"Forklift Safety Certification", "kofi.owusu", "forklift", 21},
		}
		for _, s := range sessions {
			var exists int
			if err := db.Raw("SELECT 1 FROM training_sessions WHERE title = ?", s.Title).Row().Scan(&exists); err == nil {
				continue
			}
			start := time.Now().AddDate(0, 0, s.StartDays)
			end := start.Add(6 * time.Hour)
			if err := db.Exec(
				"INSERT INTO training_sessions (title, instructor, category, status, start_time, end_time, created_at, updated_at) VALUES (?, ?, ?, 'upcoming', ?, ?, now(), now())",
				s.Title, s.Instructor, s.Category, start, end,
			).Error; err != nil {
				log.Fatalf("failed to insert session %s: %v", s.Title, err)
			}
			fmt.Println("Seeded training session:", s.Title)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM job_postings WHERE title = ?", "Backhoe Operator").Row().Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO job_postings (title, company, location, category, status, created_at, updated_at) VALUES (?, ?, ?, ?, 'open', now(), now())",
				"Backhoe Operator", "Accra Earthworks Ltd", "Accra", "backhoe",
			).Error; err != nil {
				log.Fatalf("failed to insert job posting: %v", err)
			}
			fmt.Println("Seeded job posting: Backhoe Operator")
		}

		fmt.Println("Seeding complete")
	},
}

func seedUser(db *gorm.DB, username, email, passwordHash, school, role string) {
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return
	}

	if err := db.Exec(
		"INSERT INTO users (username, email, password_hash, school, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
		username, email, passwordHash, school, role,
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}
