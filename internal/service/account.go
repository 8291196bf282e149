package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/storage"
)

// AccountInput 账号创建和更新的输入参数
type AccountInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IMAPHost string `json:"imapServer"`
	IMAPPort int    `json:"imapPort"`
	SMTPHost string `json:"smtpServer"`
	SMTPPort int    `json:"smtpPort"`
	IsActive *bool  `json:"isActive"`
}

// AccountService 账号注册表服务
type AccountService struct {
	accounts  storage.AccountRepository
	validator *domain.EmailValidator
	log       *zap.Logger
}

// NewAccountService 创建账号注册表服务
func NewAccountService(accounts storage.AccountRepository, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		accounts:  accounts,
		validator: domain.NewEmailValidator(),
		log:       log,
	}
}

// Create 创建新账号，返回隐藏密码后的副本
func (s *AccountService) Create(ctx context.Context, input *AccountInput) (*domain.Account, error) {
	if err := s.validateInput(input, true); err != nil {
		return nil, err
	}

	now := time.Now()
	account := &domain.Account{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(input.Email),
		Password:  input.Password,
		IMAPHost:  strings.TrimSpace(input.IMAPHost),
		IMAPPort:  input.IMAPPort,
		SMTPHost:  strings.TrimSpace(input.SMTPHost),
		SMTPPort:  input.SMTPPort,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}

	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return nil, translateStorageErr(err)
	}

	s.log.Info("account created",
		zap.String("accountId", account.ID),
		zap.String("email", account.Email))

	redacted := account.Redacted()
	return &redacted, nil
}

// Get 获取单个账号，返回隐藏密码后的副本
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, translateStorageErr(err)
	}
	redacted := account.Redacted()
	return &redacted, nil
}

// List 列出所有账号，全部隐藏密码
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	redacted := make([]domain.Account, len(accounts))
	for i, account := range accounts {
		redacted[i] = account.Redacted()
	}
	return redacted, nil
}

// Update 更新账号；密码留空表示保留原密码
func (s *AccountService) Update(ctx context.Context, id string, input *AccountInput) (*domain.Account, error) {
	if err := s.validateInput(input, false); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, translateStorageErr(err)
	}

	account.Email = strings.TrimSpace(input.Email)
	account.IMAPHost = strings.TrimSpace(input.IMAPHost)
	account.IMAPPort = input.IMAPPort
	account.SMTPHost = strings.TrimSpace(input.SMTPHost)
	account.SMTPPort = input.SMTPPort
	if input.Password != "" {
		account.Password = input.Password
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	account.UpdatedAt = time.Now()

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, translateStorageErr(err)
	}

	s.log.Info("account updated", zap.String("accountId", account.ID))

	redacted := account.Redacted()
	return &redacted, nil
}

// Delete 删除账号
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return translateStorageErr(err)
	}
	s.log.Info("account deleted", zap.String("accountId", id))
	return nil
}

// Toggle 翻转账号的启用状态，返回隐藏密码后的副本
func (s *AccountService) Toggle(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, translateStorageErr(err)
	}

	account.IsActive = !account.IsActive
	account.UpdatedAt = time.Now()

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, translateStorageErr(err)
	}

	s.log.Info("account toggled",
		zap.String("accountId", account.ID),
		zap.Bool("isActive", account.IsActive))

	redacted := account.Redacted()
	return &redacted, nil
}

// validateInput 验证账号输入；requirePassword 在创建时为 true
func (s *AccountService) validateInput(input *AccountInput, requirePassword bool) error {
	if err := s.validator.ValidateEmail(input.Email); err != nil {
		return err
	}
	if requirePassword && input.Password == "" {
		return ErrPasswordRequired
	}
	if strings.TrimSpace(input.IMAPHost) == "" || strings.TrimSpace(input.SMTPHost) == "" {
		return domain.ErrInvalidDomain
	}
	if err := domain.ValidatePort(input.IMAPPort); err != nil {
		return err
	}
	if err := domain.ValidatePort(input.SMTPPort); err != nil {
		return err
	}
	return nil
}

// translateStorageErr 把存储层错误翻译为服务层错误
func translateStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, storage.ErrEmailExists):
		return ErrEmailExists
	default:
		return err
	}
}
