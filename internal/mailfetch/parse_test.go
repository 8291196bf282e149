package mailfetch

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailhub/backend/internal/domain"
)

const plainMessage = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Weekly report\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Report body here.\r\n"

const noSubjectMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Body without subject.\r\n"

const noDateMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: No date\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Body without date.\r\n"

const htmlOnlyMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: HTML only\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>HTML body</p>\r\n"

const alternativeMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Multipart\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
	"Content-Type: multipart/alternative; boundary=\"frontier\"\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>HTML variant</p>\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain variant\r\n" +
	"--frontier--\r\n"

func TestParseRaw(t *testing.T) {
	t.Run("解析完整的纯文本邮件", func(t *testing.T) {
		msg, err := parseRaw("acc-1", 42, nil, strings.NewReader(plainMessage))
		require.NoError(t, err)

		assert.Equal(t, "acc-1-42", msg.ID)
		assert.Equal(t, "acc-1", msg.AccountID)
		assert.Equal(t, uint32(42), msg.UID)
		assert.Equal(t, "Weekly report", msg.Subject)
		assert.Equal(t, "Alice <alice@example.com>", msg.From)
		assert.Equal(t, "bob@example.com", msg.To)
		assert.Equal(t, "Report body here.\r\n", msg.Content)
		assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), msg.Date.UTC())
		assert.False(t, msg.IsRead)
		assert.False(t, msg.IsStarred)
	})

	t.Run("缺失主题时使用占位主题", func(t *testing.T) {
		msg, err := parseRaw("acc-1", 1, nil, strings.NewReader(noSubjectMessage))
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultSubject, msg.Subject)
	})

	t.Run("缺失日期时取当前时间", func(t *testing.T) {
		before := time.Now()
		msg, err := parseRaw("acc-1", 1, nil, strings.NewReader(noDateMessage))
		require.NoError(t, err)
		assert.False(t, msg.Date.Before(before))
		assert.False(t, msg.Date.After(time.Now()))
	})

	t.Run("仅有 HTML 时退回 HTML 正文", func(t *testing.T) {
		msg, err := parseRaw("acc-1", 1, nil, strings.NewReader(htmlOnlyMessage))
		require.NoError(t, err)
		assert.Contains(t, msg.Content, "<p>HTML body</p>")
	})

	t.Run("多部分邮件优先纯文本", func(t *testing.T) {
		msg, err := parseRaw("acc-1", 1, nil, strings.NewReader(alternativeMessage))
		require.NoError(t, err)
		assert.Contains(t, msg.Content, "Plain variant")
		assert.NotContains(t, msg.Content, "HTML variant")
	})

	t.Run("根据标志映射已读和加星状态", func(t *testing.T) {
		flags := []string{imap.SeenFlag, imap.FlaggedFlag}
		msg, err := parseRaw("acc-1", 1, flags, strings.NewReader(plainMessage))
		require.NoError(t, err)
		assert.True(t, msg.IsRead)
		assert.True(t, msg.IsStarred)
	})

	t.Run("无法解析的输入返回错误", func(t *testing.T) {
		_, err := parseRaw("acc-1", 1, nil, strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher(Options{}, nil, nil)
	assert.Equal(t, "INBOX", f.opts.Mailbox)
	assert.Equal(t, 20, f.opts.Window)
}
