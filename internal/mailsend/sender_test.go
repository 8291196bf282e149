package mailsend

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailhub/backend/internal/domain"
)

func TestGenerateMessageID(t *testing.T) {
	pattern := regexp.MustCompile(`^<\d+\.[0-9a-f]{16}@example\.com>$`)

	id := generateMessageID("user@example.com")
	assert.Regexp(t, pattern, id)

	// 无法解析域名时退回 localhost
	id = generateMessageID("not-an-email")
	assert.Contains(t, id, "@localhost>")

	// 连续生成应当不同
	assert.NotEqual(t, generateMessageID("user@example.com"), generateMessageID("user@example.com"))
}

func TestBuildMessage(t *testing.T) {
	t.Run("纯文本邮件", func(t *testing.T) {
		req := &domain.SendRequest{
			To:      "rcpt@example.com",
			Subject: "Hello",
			Text:    "plain body",
		}

		buf, err := buildMessage("user@example.com", "<1.abc@example.com>", req)
		require.NoError(t, err)

		raw := buf.String()
		assert.Contains(t, raw, "From: <user@example.com>")
		assert.Contains(t, raw, "To: <rcpt@example.com>")
		assert.Contains(t, raw, "Subject: Hello")
		assert.Contains(t, raw, "Message-ID: <1.abc@example.com>")
		assert.Contains(t, raw, "plain body")
	})

	t.Run("文本加 HTML 邮件", func(t *testing.T) {
		req := &domain.SendRequest{
			To:      "rcpt@example.com",
			Subject: "Hello",
			Text:    "plain body",
			HTML:    "<p>html body</p>",
		}

		buf, err := buildMessage("user@example.com", "<1.abc@example.com>", req)
		require.NoError(t, err)

		raw := buf.String()
		assert.Contains(t, raw, "text/plain")
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "plain body")
		assert.Contains(t, raw, "html body")
	})

	t.Run("空正文仍生成文本部分", func(t *testing.T) {
		req := &domain.SendRequest{
			To:      "rcpt@example.com",
			Subject: "Empty",
		}

		buf, err := buildMessage("user@example.com", "<1.abc@example.com>", req)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "text/plain")
	})
}

func TestWrapSendError(t *testing.T) {
	t.Run("保留服务器的拒绝状态码和文案", func(t *testing.T) {
		smtpErr := &smtp.SMTPError{
			Code:    550,
			Message: "5.1.1 User unknown",
		}

		wrapped := wrapSendError(fmt.Errorf("failed to send: %w", smtpErr))
		assert.Equal(t, 550, wrapped.Code)
		assert.Equal(t, "5.1.1 User unknown", wrapped.ServerText)
		assert.Contains(t, wrapped.Error(), "550")
		assert.Contains(t, wrapped.Error(), "User unknown")
	})

	t.Run("连接类失败没有状态码", func(t *testing.T) {
		wrapped := wrapSendError(errors.New("connection refused"))
		assert.Equal(t, 0, wrapped.Code)
		assert.True(t, strings.Contains(wrapped.Error(), "connection refused"))
	})

	t.Run("支持 errors.As 解包", func(t *testing.T) {
		smtpErr := &smtp.SMTPError{Code: 452, Message: "mailbox full"}
		wrapped := wrapSendError(smtpErr)

		var target *smtp.SMTPError
		assert.True(t, errors.As(wrapped, &target))
		assert.Equal(t, 452, target.Code)
	})
}
