package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/learnhub/domain"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL and ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	admin, err := domain.NewUser(adminEmail, adminPassword, model.RoleAdmin)
	if err != nil {
		return err
	}

	admin.PasswordHash, err = auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

type lessonSeed struct {
	title   string
	subject model.Subject
	grade   int
}

var sampleLessons = []lessonSeed{
	{"Algebra I", model.SubjectMath, 7},
	{"Geometry", model.SubjectMath, 8},
	{"Biology", model.SubjectScience, 7},
	{"Chemistry", model.SubjectScience, 8},
	{"Literature", model.SubjectEnglish, 7},
	{"World History", model.SubjectHistory, 8},
}

// SeedLessons creates the sample lessons when the table is empty
func (s *Seeder) SeedLessons() error {
	var count int64
	if err := s.db.Model(&model.Lesson{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Lessons already exist, skipping...")
		return nil
	}

	lessons := make([]*model.Lesson, 0, len(sampleLessons))
	for _, l := range sampleLessons {
		lesson, err := domain.NewLesson(l.title, l.subject, l.grade)
		if err != nil {
			return fmt.Errorf("invalid seed lesson %q: %w", l.title, err)
		}
		lessons = append(lessons, lesson)
	}

	if err := s.db.Create(&lessons).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d lessons\n", len(lessons))
	return nil
}

func intPtr(v int) *int { return &v }

var sampleAchievements = []domain.AchievementParams{
	{
		Name:        "First Lesson",
		Description: "Complete your first lesson",
		Type:        model.AchievementBronze,
		Category:    model.CategoryLessonCompletion,
		Points:      10,
		Threshold:   intPtr(1),
	},
	{
		Name:        "Math Master",
		Description: "Complete 5 math lessons",
		Type:        model.AchievementSilver,
		Category:    model.CategorySubjectMastery,
		Points:      50,
		Threshold:   intPtr(5),
	},
	{
		Name:        "Streak Master",
		Description: "Complete lessons for 7 days in a row",
		Type:        model.AchievementGold,
		Category:    model.CategoryStreak,
		Points:      100,
		Threshold:   intPtr(7),
	},
}

// SeedAchievements creates the sample achievements when the table is empty
func (s *Seeder) SeedAchievements() error {
	var count int64
	if err := s.db.Model(&model.Achievement{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Achievements already exist, skipping...")
		return nil
	}

	achievements := make([]*model.Achievement, 0, len(sampleAchievements))
	for _, p := range sampleAchievements {
		a, err := domain.NewAchievement(p)
		if err != nil {
			return fmt.Errorf("invalid seed achievement %q: %w", p.Name, err)
		}
		achievements = append(achievements, a)
	}

	if err := s.db.Create(&achievements).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d achievements\n", len(achievements))
	return nil
}

// RunSeeds migrates and seeds the tables owned by target: user, lesson, achievement or all.
// "all" expects the three services to share one database.
func RunSeeds(db *gorm.DB, target string) error {
	seeder := NewSeeder(db)
	store := NewGORMStore(db)

	steps := map[string]struct {
		models []interface{}
		seed   func() error
	}{
		"user":        {UserModels, seeder.SeedAdminUser},
		"lesson":      {LessonModels, seeder.SeedLessons},
		"achievement": {AchievementModels, seeder.SeedAchievements},
	}

	order := []string{"user", "lesson", "achievement"}
	if target != "all" {
		if _, ok := steps[target]; !ok {
			return fmt.Errorf("unknown seed target %q", target)
		}
		order = []string{target}
	}

	log.Println("🌱 Starting database seeding...")
	for _, name := range order {
		step := steps[name]
		if err := store.Init(step.models...); err != nil {
			return fmt.Errorf("failed to migrate %s tables: %w", name, err)
		}
		if err := step.seed(); err != nil {
			return fmt.Errorf("failed to seed %s data: %w", name, err)
		}
	}
	log.Println("✅ Database seeding completed successfully!")
	return nil
}
