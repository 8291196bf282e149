package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/monitoring"
	"mailhub/backend/internal/storage"
)

// 服务层错误定义
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrPasswordRequired = errors.New("password is required")
	ErrSendRateLimited  = errors.New("send rate limit exceeded")
)

// MailboxFetcher 拉取单个账号收件箱的最近窗口
type MailboxFetcher interface {
	Fetch(ctx context.Context, account *domain.Account) ([]domain.Message, error)
}

// MessageSender 以账号身份投递一封邮件
type MessageSender interface {
	Send(ctx context.Context, account *domain.Account, req *domain.SendRequest) (*domain.SendResult, error)
}

// ConnectionProber 对账号的收信服务器做连通性探测
type ConnectionProber interface {
	Probe(ctx context.Context, account *domain.Account) domain.ProbeResult
}

// AggregateResult 跨账号聚合拉取的结果
//
// Messages 为所有成功账号的邮件合并后按日期降序排列；
// Outcomes 按账号逐条记录成败，失败账号不影响 Messages 中其他账号的内容。
type AggregateResult struct {
	Messages []domain.Message      `json:"messages"`
	Outcomes []domain.FetchOutcome `json:"-"`
}

// MailService 邮件聚合服务：跨账号拉取、外发和探测
type MailService struct {
	accounts  storage.AccountRepository
	fetcher   MailboxFetcher
	sender    MessageSender
	prober    ConnectionProber
	limiter   *rate.Limiter
	metrics   *monitoring.Metrics
	validator *domain.EmailValidator
	log       *zap.Logger
}

// NewMailService 创建邮件聚合服务
//
// ratePerMinute 限制全局外发速率，<= 0 表示不限流。
func NewMailService(
	accounts storage.AccountRepository,
	fetcher MailboxFetcher,
	sender MessageSender,
	prober ConnectionProber,
	ratePerMinute int,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *MailService {
	var limiter *rate.Limiter
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), ratePerMinute)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MailService{
		accounts:  accounts,
		fetcher:   fetcher,
		sender:    sender,
		prober:    prober,
		limiter:   limiter,
		metrics:   metrics,
		validator: domain.NewEmailValidator(),
		log:       log,
	}
}

// FetchAll 并发拉取所有启用账号的收件箱并聚合结果
//
// 每个账号独立成败：单个账号拉取失败只记录在对应 Outcome 中，
// 不影响其他账号的邮件进入聚合列表。仅当账号注册表本身不可用时返回错误。
func (s *MailService) FetchAll(ctx context.Context) (*AggregateResult, error) {
	accounts, err := s.accounts.ListActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return s.fetchAccounts(ctx, accounts), nil
}

// FetchForAccount 拉取指定账号的收件箱
//
// 账号不存在时返回 ErrAccountNotFound；拉取失败记录在 Outcome 中，
// 聚合列表为空但调用本身不报错。
func (s *MailService) FetchForAccount(ctx context.Context, accountID string) (*AggregateResult, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.fetchAccounts(ctx, []domain.Account{*account}), nil
}

// fetchAccounts 为每个账号启动一个拉取 goroutine，结果写入各自的槽位
func (s *MailService) fetchAccounts(ctx context.Context, accounts []domain.Account) *AggregateResult {
	outcomes := make([]domain.FetchOutcome, len(accounts))

	var wg sync.WaitGroup
	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			account := &accounts[i]
			start := time.Now()
			messages, err := s.fetcher.Fetch(ctx, account)
			s.metrics.RecordFetchSession(err == nil, len(messages), time.Since(start))

			if err != nil {
				s.log.Warn("fetch failed for account",
					zap.String("accountId", account.ID),
					zap.String("email", account.Email),
					zap.Error(err))
				outcomes[i] = domain.FetchOutcome{AccountID: account.ID, Err: err}
				return
			}
			outcomes[i] = domain.FetchOutcome{AccountID: account.ID, Messages: messages}
		}(i)
	}
	wg.Wait()

	merged := make([]domain.Message, 0)
	for _, outcome := range outcomes {
		merged = append(merged, outcome.Messages...)
	}

	// 稳定排序：日期相同的邮件保持账号顺序
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})

	return &AggregateResult{Messages: merged, Outcomes: outcomes}
}

// Send 以指定账号身份向单个收件人投递邮件
func (s *MailService) Send(ctx context.Context, accountID string, req *domain.SendRequest) (*domain.SendResult, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateEmail(req.To); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.log.Warn("send rate limit exceeded", zap.String("accountId", accountID))
		return nil, ErrSendRateLimited
	}

	result, err := s.sender.Send(ctx, account, req)
	s.metrics.RecordSend(err == nil)
	if err != nil {
		s.log.Warn("send failed",
			zap.String("accountId", accountID),
			zap.String("to", req.To),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Probe 对指定账号的收信服务器做连通性探测
//
// 账号不存在时返回 ErrAccountNotFound，探测本身永远不产生错误。
func (s *MailService) Probe(ctx context.Context, accountID string) (domain.ProbeResult, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return domain.ProbeResult{}, err
	}

	result := s.prober.Probe(ctx, account)
	s.metrics.RecordProbe(result.Success)
	return result, nil
}

// getAccount 获取账号并把存储层错误翻译为服务层错误
func (s *MailService) getAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
