package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Analyst{},
		&models.Schedule{},
		&models.VideoCall{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		VideoCallExpireDays:  7,
		JWTSecretKey:         "test-secret",
		AdminEmail:           "admin@test.local",
		DefaultAdminPassword: "admin123",
	}
}

func createCompanyUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "Company",
		Role:      models.RoleCompany,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create company user: %v", err)
	}
	profile := &models.Company{UserID: user.ID, CompanyName: "Acme " + email}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create company profile: %v", err)
	}
	user.Company = profile
	return user
}

func createAnalystUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "Analyst",
		Role:      models.RoleAnalyst,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create analyst user: %v", err)
	}
	profile := &models.Analyst{UserID: user.ID, Specialty: "Equity"}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create analyst profile: %v", err)
	}
	user.Analyst = profile
	return user
}

// testDate 返回一个未来的排期日期，避免与"最近排期"查询的当前时间比较冲突
func testDate(daysAhead int) time.Time {
	now := time.Now().AddDate(0, 0, daysAhead)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
