// Package memory 提供账号注册表的内存实现，用于开发环境和测试。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/storage"
)

// Store 账号注册表的内存实现
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewStore 创建内存账号注册表
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
	}
}

// SaveAccount 保存新账号
func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return storage.ErrEmailExists
		}
	}

	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

// GetAccount 按 ID 获取账号
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

// ListAccounts 返回所有账号，按创建时间排序
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, *account)
	}
	sortAccounts(accounts)
	return accounts, nil
}

// ListActiveAccounts 返回所有启用中的账号，按创建时间排序
func (s *Store) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		if account.IsActive {
			accounts = append(accounts, *account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

// UpdateAccount 更新已有账号
func (s *Store) UpdateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return storage.ErrAccountNotFound
	}

	for id, existing := range s.accounts {
		if id != account.ID && strings.EqualFold(existing.Email, account.Email) {
			return storage.ErrEmailExists
		}
	}

	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

// DeleteAccount 删除账号
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return storage.ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

// Health 内存实现恒为健康
func (s *Store) Health(ctx context.Context) error {
	return nil
}

// Close 关闭存储
func (s *Store) Close() error {
	return nil
}

// sortAccounts 按创建时间升序排序，时间相同时按 ID 保证确定性
func sortAccounts(accounts []domain.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
}
