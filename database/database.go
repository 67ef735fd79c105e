package database

import (
	"fmt"
	"log/slog"
	"strings"

	"timecard/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to postgres or sqlite. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey on both drivers.
func Open(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
}

func Init(driver, dsn string, level logger.LogLevel) error {
	var err error
	DB, err = Open(driver, dsn, level)
	if err != nil {
		return err
	}
	return Migrate(DB)
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Stamp{}, &models.MonthlySummary{})
}

// SeedAdmin creates the first admin account when no admin exists yet.
func SeedAdmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := CreateUser(db, email, "Administrator", password, models.RoleAdmin); err != nil {
		return err
	}
	slog.Info("Default admin user created", "email", email)
	return nil
}

// CreateUser hashes password and inserts a new active user.
func CreateUser(db *gorm.DB, email, fullName, password string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if _, ok := models.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Active:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate returns the active user matching email and password.
func Authenticate(db *gorm.DB, email, password string) (*models.User, bool) {
	var user models.User
	if err := db.Where("email = ? AND active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error; err != nil {
		return nil, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, false
	}
	return &user, true
}

func GetDB() *gorm.DB {
	return DB
}

// LogLevel maps a slog level name onto gorm's logger.
func LogLevel(name string) logger.LogLevel {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return logger.Info
	case "WARN", "WARNING":
		return logger.Warn
	case "ERROR":
		return logger.Error
	}
	return logger.Warn
}
