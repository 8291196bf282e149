// Package mailsend 实现通过账号的外发中继投递邮件。
//
// 每次投递都是独立的短连接会话：建连、认证、投递、关闭。
package mailsend

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"mailhub/backend/internal/domain"
)

// AcceptedResponse 是中继接受投递后对外返回的规范应答行。
// 中继的原始接受横幅不会透出到客户端层，这里给出等价的规范表示。
const AcceptedResponse = "250 2.0.0 OK"

// SendError 表示一次被中继拒绝或中断的投递
//
// ServerText 保留服务器的原始拒绝文案，Code 为 SMTP 状态码（连接类失败时为 0）。
type SendError struct {
	Code       int
	ServerText string
	Err        error
}

func (e *SendError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("send rejected: %d %s", e.Code, e.ServerText)
	}
	return fmt.Sprintf("send failed: %s", e.ServerText)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Options 外发投递的配置参数
type Options struct {
	ConnectTimeout     time.Duration // 建连超时
	CommandTimeout     time.Duration // 单条命令超时
	InsecureSkipVerify bool          // 跳过证书校验（自签名服务器）
}

// Sender 按账号执行外发投递
type Sender struct {
	opts Options
	log  *zap.Logger
}

// NewSender 创建投递器
func NewSender(opts Options, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{opts: opts, log: log}
}

// Send 以账号身份向单个收件人投递一封邮件
//
// 投递失败时返回 *SendError，其中保留中继的原始拒绝文案。
func (s *Sender) Send(ctx context.Context, account *domain.Account, req *domain.SendRequest) (*domain.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := generateMessageID(account.Email)
	msg, err := buildMessage(account.Email, messageID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", account.SMTPHost, account.SMTPPort)
	dialer := &net.Dialer{Timeout: s.opts.ConnectTimeout}
	tlsConfig := &tls.Config{
		ServerName:         account.SMTPHost,
		InsecureSkipVerify: s.opts.InsecureSkipVerify,
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	if err != nil {
		return nil, wrapSendError(fmt.Errorf("failed to connect to %s: %w", addr, err))
	}

	c := smtp.NewClient(conn)
	defer c.Close()
	c.CommandTimeout = s.opts.CommandTimeout

	auth := sasl.NewPlainClient("", account.Email, account.Password)
	if err := c.Auth(auth); err != nil {
		return nil, wrapSendError(fmt.Errorf("authentication failed: %w", err))
	}

	if err := c.SendMail(account.Email, []string{req.To}, msg); err != nil {
		return nil, wrapSendError(err)
	}

	s.log.Info("message delivered to relay",
		zap.String("accountId", account.ID),
		zap.String("to", req.To),
		zap.String("messageId", messageID))

	return &domain.SendResult{
		MessageID: messageID,
		Response:  AcceptedResponse,
	}, nil
}

// wrapSendError 将底层错误归一化为 *SendError，保留服务器的状态码和原始文案
func wrapSendError(err error) *SendError {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &SendError{
			Code:       smtpErr.Code,
			ServerText: smtpErr.Message,
			Err:        err,
		}
	}
	return &SendError{ServerText: err.Error(), Err: err}
}

// buildMessage 构造一封带文本正文（可选 HTML 正文）的 MIME 邮件
func buildMessage(from, messageID string, req *domain.SendRequest) (*bytes.Buffer, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(req.Subject)
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", []*mail.Address{{Address: req.To}})
	header.Set("Message-ID", messageID)

	iw, err := mail.CreateInlineWriter(&buf, header)
	if err != nil {
		return nil, err
	}

	if req.Text != "" || req.HTML == "" {
		var h mail.InlineHeader
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := iw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(req.Text)); err != nil {
			return nil, err
		}
		w.Close()
	}

	if req.HTML != "" {
		var h mail.InlineHeader
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		w, err := iw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(req.HTML)); err != nil {
			return nil, err
		}
		w.Close()
	}

	if err := iw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

// generateMessageID 生成符合 RFC 5322 的 Message-ID
// 格式: <timestamp.random@domain>
func generateMessageID(fromEmail string) string {
	host := "localhost"
	if idx := strings.Index(fromEmail, "@"); idx >= 0 {
		host = fromEmail[idx+1:]
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	randomPart := hex.EncodeToString(b)

	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), randomPart, host)
}
