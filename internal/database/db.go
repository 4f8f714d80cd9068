package database

import (
	"context"
	"fmt"
	"time"

	"repair-tracker/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Options struct {
	DSN         string
	MaxConns    int32
	MaxAttempts int
	RetryDelay  time.Duration
}

// Open подключается через пул pgx и отдаёт его gorm. Postgres в docker-compose
// часто поднимается позже приложения, поэтому первый ping повторяется.
func Open(ctx context.Context, opts Options) (*gorm.DB, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var pool *pgxpool.Pool
	for i := 1; i <= opts.MaxAttempts; i++ {
		log.Infof("trying to connect to DB (attempt %d/%d)...", i, opts.MaxAttempts)

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info("connected to DB successfully")
				break
			}
			pool.Close()
		}

		log.Warnf("failed to connect to DB: %v", err)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db after %d attempts: %w", opts.MaxAttempts, err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm: %w", err)
	}

	closeFn := func() {
		_ = sqlDB.Close()
		pool.Close()
	}
	return db, closeFn, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Master{},
		&models.EquipmentType{},
		&models.Status{},
		&models.Request{},
		&models.Comment{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return seedStatuses(db)
}

// справочник статусов фиксирован: ровно одна строка на имя
func seedStatuses(db *gorm.DB) error {
	for _, code := range models.AllStatuses {
		status := models.Status{Name: code.Name()}
		if err := db.Where("name = ?", status.Name).FirstOrCreate(&status).Error; err != nil {
			return fmt.Errorf("seed status %q: %w", status.Name, err)
		}
	}
	return nil
}

type AdminSeed struct {
	Login    string
	Password string
	FullName string
}

// CreateDefaultAdmin создаёт первого администратора, если его ещё нет.
// Через регистрацию администратор не создаётся.
func CreateDefaultAdmin(db *gorm.DB, seed AdminSeed) error {
	if seed.Login == "" {
		seed.Login = "admin"
	}
	if seed.Password == "" {
		seed.Password = "Admin123!"
	}
	if seed.FullName == "" {
		seed.FullName = "Администратор"
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		// админ уже есть, ничего не делаем
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	admin := models.User{
		Login:        seed.Login,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		FullName:     seed.FullName,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	log.WithField("login", seed.Login).Info("created default admin user")
	return nil
}
