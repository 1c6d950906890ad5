package services

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"topvalidation-http-service/models"
)

func TestRegisterCompanyUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestConfig())

	user, err := svc.RegisterCompanyUser(&models.User{
		Email:     "acme@test.local",
		Password:  "secret123",
		FirstName: "Jane",
		LastName:  "Doe",
	}, &models.Company{CompanyName: "Acme Corp"})
	if err != nil {
		t.Fatalf("RegisterCompanyUser: %v", err)
	}
	if user.Role != models.RoleCompany {
		t.Fatalf("role = %s, want COMPANY", user.Role)
	}
	if user.Company == nil || user.Company.UserID != user.ID {
		t.Fatal("company profile must be bound to the user")
	}

	// 密码已哈希且可校验
	loaded, err := svc.GetUserByEmail("acme@test.local")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if loaded.Password == "secret123" {
		t.Fatal("password must not be stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(loaded.Password), []byte("secret123")); err != nil {
		t.Fatalf("stored hash should verify the original password: %v", err)
	}
	if !loaded.IsCompany() {
		t.Fatal("loaded user should carry the company profile")
	}
}

func TestRegisterAnalystUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestConfig())

	user, err := svc.RegisterAnalystUser(&models.User{
		Email:    "analyst@test.local",
		Password: "secret123",
	}, &models.Analyst{Specialty: "Equity"})
	if err != nil {
		t.Fatalf("RegisterAnalystUser: %v", err)
	}
	if user.Role != models.RoleAnalyst {
		t.Fatalf("role = %s, want ANALYST", user.Role)
	}

	loaded, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !loaded.IsAnalyst() {
		t.Fatal("loaded user should carry the analyst profile")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestConfig())

	if _, err := svc.RegisterCompanyUser(&models.User{
		Email: "dup@test.local", Password: "secret123",
	}, &models.Company{CompanyName: "First"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	if _, err := svc.RegisterAnalystUser(&models.User{
		Email: "dup@test.local", Password: "secret123",
	}, &models.Analyst{}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestConfig())

	if _, err := svc.GetUserByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id should be not found, got %v", err)
	}
	if _, err := svc.GetUserByEmail("missing@test.local"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email should be not found, got %v", err)
	}
}

func TestEnsureAdminExists(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, newTestConfig())

	if err := svc.EnsureAdminExists(); err != nil {
		t.Fatalf("EnsureAdminExists: %v", err)
	}
	admin, err := svc.GetUserByEmail("admin@test.local")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("seeded role = %s, want ADMIN", admin.Role)
	}

	// 再次调用不重复创建
	if err := svc.EnsureAdminExists(); err != nil {
		t.Fatalf("second EnsureAdminExists: %v", err)
	}
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("admin count = %d, want 1", count)
	}
}
