// Package sql 提供账号注册表的 SQL 数据库实现（支持 MySQL 5.7+ 和 PostgreSQL）。
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/storage"
)

// Store 账号注册表的 SQL 数据库实现
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建 SQL 账号注册表
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	// 打开数据库连接
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var gormDB *gorm.DB
	switch driverName {
	case "mysql":
		gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: db}), gormConfig)
	case "postgres":
		gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: db}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	// 自动执行数据库迁移
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate 执行数据库迁移（使用 GORM AutoMigrate）
func (s *Store) migrate() error {
	return s.gormDB.AutoMigrate(&domain.Account{})
}

// SaveAccount 保存新账号
func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	var count int64
	if err := s.gormDB.WithContext(ctx).
		Model(&domain.Account{}).
		Where("LOWER(email) = LOWER(?)", account.Email).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return storage.ErrEmailExists
	}

	if err := s.gormDB.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount 按 ID 获取账号
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	err := s.gormDB.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccounts 返回所有账号，按创建时间排序
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.gormDB.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListActiveAccounts 返回所有启用中的账号，按创建时间排序
func (s *Store) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.gormDB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount 更新已有账号
//
// MySQL 对字段值未变化的 UPDATE 报告零受影响行，
// 因此存在性用独立查询判断，不依赖受影响行数。
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	var exists int64
	if err := s.gormDB.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", account.ID).
		Count(&exists).Error; err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists == 0 {
		return storage.ErrAccountNotFound
	}

	var count int64
	if err := s.gormDB.WithContext(ctx).
		Model(&domain.Account{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", account.Email, account.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return storage.ErrEmailExists
	}

	result := s.gormDB.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", account.ID).
		Select("email", "password", "imap_host", "imap_port", "smtp_host", "smtp_port", "is_active", "updated_at").
		Updates(account)
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	return nil
}

// DeleteAccount 删除账号
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	result := s.gormDB.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
