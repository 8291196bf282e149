package storage

import (
	"context"
	"errors"

	"mailhub/backend/internal/domain"
)

// 账号注册表共享的错误定义
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already registered")
)

// AccountRepository 定义账号注册表的存储接口
//
// 提供内存实现（开发/测试）和 SQL 实现（生产）。
type AccountRepository interface {
	// SaveAccount 保存新账号；邮箱已被占用时返回 ErrEmailExists
	SaveAccount(ctx context.Context, account *domain.Account) error

	// GetAccount 按 ID 获取账号；不存在时返回 ErrAccountNotFound
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	// ListAccounts 返回所有账号
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// ListActiveAccounts 返回所有启用中的账号
	ListActiveAccounts(ctx context.Context) ([]domain.Account, error)

	// UpdateAccount 更新已有账号；不存在时返回 ErrAccountNotFound
	UpdateAccount(ctx context.Context, account *domain.Account) error

	// DeleteAccount 删除账号；不存在时返回 ErrAccountNotFound
	DeleteAccount(ctx context.Context, id string) error

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Close 关闭存储连接
	Close() error
}
