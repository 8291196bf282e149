package mailfetch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	_ "github.com/emersion/go-message/charset" // 注册扩展字符集解码器
	"github.com/emersion/go-message/mail"

	"mailhub/backend/internal/domain"
)

// parseRaw 将一封原始邮件解析并归一化为领域消息
//
// 归一化规则：缺失主题用占位值，缺失日期取当前时间，
// 正文优先纯文本，仅有 HTML 时退回 HTML，都没有时为空串。
func parseRaw(accountID string, uid uint32, flags []string, r io.Reader) (domain.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to create mail reader: %w", err)
	}

	subject, err := mr.Header.Subject()
	if err != nil || strings.TrimSpace(subject) == "" {
		subject = domain.DefaultSubject
	}

	date, err := mr.Header.Date()
	if err != nil || date.IsZero() {
		date = time.Now()
	}

	from := formatAddressHeader(&mr.Header, "From")
	to := formatAddressHeader(&mr.Header, "To")

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Message{}, fmt.Errorf("failed to read message part: %w", err)
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue // 跳过附件
		}

		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			if textBody == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					textBody = string(body)
				}
			}
		case "text/html":
			if htmlBody == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					htmlBody = string(body)
				}
			}
		}
	}

	content := textBody
	if content == "" {
		content = htmlBody
	}

	return domain.Message{
		ID:        fmt.Sprintf("%s-%d", accountID, uid),
		AccountID: accountID,
		Subject:   subject,
		From:      from,
		To:        to,
		Date:      date,
		Content:   content,
		IsRead:    hasFlag(flags, imap.SeenFlag),
		IsStarred: hasFlag(flags, imap.FlaggedFlag),
		UID:       uid,
	}, nil
}

// formatAddressHeader 将地址头格式化为 "Name <addr>" 或纯地址，多个地址以逗号连接
func formatAddressHeader(header *mail.Header, key string) string {
	addresses, err := header.AddressList(key)
	if err != nil || len(addresses) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if address.Name != "" {
			formatted = append(formatted, fmt.Sprintf("%s <%s>", address.Name, address.Address))
		} else {
			formatted = append(formatted, address.Address)
		}
	}
	return strings.Join(formatted, ", ")
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
