package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

// InterfaceUserService 定义用户服务接口
type InterfaceUserService interface {
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	RegisterCompanyUser(user *models.User, profile *models.Company) (*models.User, error)
	RegisterAnalystUser(user *models.User, profile *models.Analyst) (*models.User, error)
	EnsureAdminExists() error
}

// UserService 提供用户身份与角色查询服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
	}
}

// GetUserByID 根据ID获取用户及其角色档案
func (s *UserService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("Company").Preload("Analyst").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户及其角色档案
func (s *UserService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("Company").Preload("Analyst").First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// RegisterCompanyUser 注册企业用户及其档案
func (s *UserService) RegisterCompanyUser(user *models.User, profile *models.Company) (*models.User, error) {
	user.Role = models.RoleCompany
	if err := s.register(user, func(tx *gorm.DB) error {
		profile.UserID = user.ID
		return tx.Create(profile).Error
	}); err != nil {
		return nil, err
	}
	user.Company = profile
	return user, nil
}

// RegisterAnalystUser 注册分析师用户及其档案
func (s *UserService) RegisterAnalystUser(user *models.User, profile *models.Analyst) (*models.User, error) {
	user.Role = models.RoleAnalyst
	if err := s.register(user, func(tx *gorm.DB) error {
		profile.UserID = user.ID
		return tx.Create(profile).Error
	}); err != nil {
		return nil, err
	}
	user.Analyst = profile
	return user, nil
}

// register 在同一事务中创建用户和角色档案
func (s *UserService) register(user *models.User, createProfile func(tx *gorm.DB) error) error {
	var existing models.User
	if err := s.DB.First(&existing, "email = ?", user.Email).Error; err == nil {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return createProfile(tx)
	})
}

// EnsureAdminExists 确保系统中存在管理员账户，启动时调用
func (s *UserService) EnsureAdminExists() error {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.User{
		Email:     s.Config.AdminEmail,
		Password:  s.Config.DefaultAdminPassword,
		FirstName: "System",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
	}
	if err := s.DB.Create(admin).Error; err != nil {
		return err
	}
	config.Info("已创建默认管理员账户: %s", admin.Email)
	return nil
}
