// Package mailfetch 实现对单个账号收件箱的短连接拉取会话。
//
// 每次拉取都是独立的完整会话：建连、认证、选择邮箱、拉取最近窗口、登出。
// 不维护长连接，也不在会话之间缓存状态。
package mailfetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/monitoring"
)

// Options 拉取会话的配置参数
type Options struct {
	Mailbox            string        // 拉取的邮箱名，默认 INBOX
	Window             int           // 最多拉取的最近邮件数
	ConnectTimeout     time.Duration // 建连超时
	AuthTimeout        time.Duration // 认证超时
	CommandTimeout     time.Duration // 登录后单条命令超时
	InsecureSkipVerify bool          // 跳过证书校验（自签名服务器）
}

// Fetcher 按账号执行收件箱拉取与连通性探测
type Fetcher struct {
	opts    Options
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewFetcher 创建拉取器
func NewFetcher(opts Options, metrics *monitoring.Metrics, log *zap.Logger) *Fetcher {
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	if opts.Window <= 0 {
		opts.Window = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{opts: opts, metrics: metrics, log: log}
}

// dial 建立 TLS 连接并完成认证
//
// 认证阶段使用独立的 AuthTimeout，认证成功后切换到 CommandTimeout。
func (f *Fetcher) dial(account *domain.Account) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", account.IMAPHost, account.IMAPPort)

	dialer := &net.Dialer{Timeout: f.opts.ConnectTimeout}
	tlsConfig := &tls.Config{
		ServerName:         account.IMAPHost,
		InsecureSkipVerify: f.opts.InsecureSkipVerify,
	}

	c, err := client.DialWithDialerTLS(dialer, addr, tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c.Timeout = f.opts.AuthTimeout
	if err := c.Login(account.Email, account.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to authenticate %s: %w", account.Email, err)
	}
	c.Timeout = f.opts.CommandTimeout

	return c, nil
}

// Fetch 拉取账号收件箱中最近一个窗口的邮件
//
// 结果按邮件日期降序排列。单封邮件解析失败只丢弃该封，
// 不影响同一会话中的其他邮件。
func (f *Fetcher) Fetch(ctx context.Context, account *domain.Account) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := f.dial(account)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select(f.opts.Mailbox, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", f.opts.Mailbox, err)
	}

	if mbox.Messages == 0 {
		return []domain.Message{}, nil
	}

	// 窗口为邮箱中序号最大的 Window 封
	from := uint32(1)
	if mbox.Messages > uint32(f.opts.Window) {
		from = mbox.Messages - uint32(f.opts.Window) + 1
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	// Peek 拉取正文，不改变服务器端的已读标记
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchFlags, imap.FetchUid, section.FetchItem()}

	fetched := make(chan *imap.Message, f.opts.Window)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, fetched)
	}()

	messages := make([]domain.Message, 0, f.opts.Window)
	for msg := range fetched {
		parsed, ok := f.parseFetched(account, msg, section)
		if !ok {
			continue
		}
		messages = append(messages, parsed)
	}

	// 先排空通道再汇合错误，保证会话确定性结束
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})

	return messages, nil
}

// parseFetched 解析单封拉取结果，失败时计入丢弃指标并跳过
func (f *Fetcher) parseFetched(account *domain.Account, msg *imap.Message, section *imap.BodySectionName) (domain.Message, bool) {
	body := msg.GetBody(section)
	if body == nil {
		f.metrics.RecordParseFailure()
		f.log.Warn("message has no body section",
			zap.String("accountId", account.ID),
			zap.Uint32("uid", msg.Uid))
		return domain.Message{}, false
	}

	parsed, err := parseRaw(account.ID, msg.Uid, msg.Flags, body)
	if err != nil {
		f.metrics.RecordParseFailure()
		f.log.Warn("failed to parse message, skipping",
			zap.String("accountId", account.ID),
			zap.Uint32("uid", msg.Uid),
			zap.Error(err))
		return domain.Message{}, false
	}
	return parsed, true
}
