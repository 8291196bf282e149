package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/storage/memory"
)

type fakeFetcher struct {
	messages map[string][]domain.Message
	errs     map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, account *domain.Account) ([]domain.Message, error) {
	if err, ok := f.errs[account.ID]; ok {
		return nil, err
	}
	return f.messages[account.ID], nil
}

type fakeSender struct {
	result *domain.SendResult
	err    error
	calls  int
}

func (f *fakeSender) Send(ctx context.Context, account *domain.Account, req *domain.SendRequest) (*domain.SendResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeProber struct {
	result domain.ProbeResult
}

func (f *fakeProber) Probe(ctx context.Context, account *domain.Account) domain.ProbeResult {
	return f.result
}

func seedAccount(t *testing.T, store *memory.Store, id, email string, active bool) {
	t.Helper()
	err := store.SaveAccount(context.Background(), &domain.Account{
		ID:        id,
		Email:     email,
		Password:  "secret",
		IMAPHost:  "imap.example.com",
		IMAPPort:  993,
		SMTPHost:  "smtp.example.com",
		SMTPPort:  465,
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func messageAt(accountID string, uid uint32, date time.Time) domain.Message {
	return domain.Message{
		ID:        accountID + "-msg",
		AccountID: accountID,
		Subject:   "subject",
		Date:      date,
		UID:       uid,
	}
}

func TestMailService_FetchAll(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("跨账号合并并按日期降序排列", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)
		seedAccount(t, store, "acc-2", "b@example.com", true)

		fetcher := &fakeFetcher{messages: map[string][]domain.Message{
			"acc-1": {messageAt("acc-1", 1, base), messageAt("acc-1", 2, base.Add(2*time.Hour))},
			"acc-2": {messageAt("acc-2", 1, base.Add(time.Hour))},
		}}

		svc := NewMailService(store, fetcher, &fakeSender{}, &fakeProber{}, 0, nil, nil)
		result, err := svc.FetchAll(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Messages, 3)
		assert.Equal(t, "acc-1", result.Messages[0].AccountID)
		assert.Equal(t, uint32(2), result.Messages[0].UID)
		assert.Equal(t, "acc-2", result.Messages[1].AccountID)
		assert.Equal(t, "acc-1", result.Messages[2].AccountID)
	})

	t.Run("单账号失败不影响其他账号", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)
		seedAccount(t, store, "acc-2", "b@example.com", true)

		fetchErr := errors.New("connection refused")
		fetcher := &fakeFetcher{
			messages: map[string][]domain.Message{
				"acc-2": {messageAt("acc-2", 1, base)},
			},
			errs: map[string]error{"acc-1": fetchErr},
		}

		svc := NewMailService(store, fetcher, &fakeSender{}, &fakeProber{}, 0, nil, nil)
		result, err := svc.FetchAll(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Messages, 1)
		assert.Equal(t, "acc-2", result.Messages[0].AccountID)

		require.Len(t, result.Outcomes, 2)
		var failed, succeeded int
		for _, outcome := range result.Outcomes {
			if outcome.Err != nil {
				failed++
				assert.Equal(t, "acc-1", outcome.AccountID)
			} else {
				succeeded++
			}
		}
		assert.Equal(t, 1, failed)
		assert.Equal(t, 1, succeeded)
	})

	t.Run("跳过停用的账号", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)
		seedAccount(t, store, "acc-2", "b@example.com", false)

		fetcher := &fakeFetcher{messages: map[string][]domain.Message{
			"acc-1": {messageAt("acc-1", 1, base)},
			"acc-2": {messageAt("acc-2", 1, base)},
		}}

		svc := NewMailService(store, fetcher, &fakeSender{}, &fakeProber{}, 0, nil, nil)
		result, err := svc.FetchAll(context.Background())
		require.NoError(t, err)

		require.Len(t, result.Messages, 1)
		assert.Equal(t, "acc-1", result.Messages[0].AccountID)
	})

	t.Run("没有启用账号时返回空列表", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, &fakeProber{}, 0, nil, nil)

		result, err := svc.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Messages)
		assert.Empty(t, result.Outcomes)
	})
}

func TestMailService_FetchForAccount(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("拉取指定账号", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		fetcher := &fakeFetcher{messages: map[string][]domain.Message{
			"acc-1": {messageAt("acc-1", 1, base)},
		}}

		svc := NewMailService(store, fetcher, &fakeSender{}, &fakeProber{}, 0, nil, nil)
		result, err := svc.FetchForAccount(context.Background(), "acc-1")
		require.NoError(t, err)
		require.Len(t, result.Messages, 1)
	})

	t.Run("未知账号返回 ErrAccountNotFound", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, &fakeProber{}, 0, nil, nil)

		_, err := svc.FetchForAccount(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("拉取失败记录在结果中", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		fetcher := &fakeFetcher{errs: map[string]error{"acc-1": errors.New("auth failed")}}
		svc := NewMailService(store, fetcher, &fakeSender{}, &fakeProber{}, 0, nil, nil)

		result, err := svc.FetchForAccount(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.Empty(t, result.Messages)
		require.Len(t, result.Outcomes, 1)
		assert.Error(t, result.Outcomes[0].Err)
	})
}

func TestMailService_Send(t *testing.T) {
	validReq := &domain.SendRequest{
		To:      "rcpt@example.com",
		Subject: "Hello",
		Text:    "body",
	}

	t.Run("投递成功返回结果", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		sender := &fakeSender{result: &domain.SendResult{MessageID: "<1@example.com>", Response: "250 2.0.0 OK"}}
		svc := NewMailService(store, &fakeFetcher{}, sender, &fakeProber{}, 0, nil, nil)

		result, err := svc.Send(context.Background(), "acc-1", validReq)
		require.NoError(t, err)
		assert.Equal(t, "<1@example.com>", result.MessageID)
		assert.Equal(t, 1, sender.calls)
	})

	t.Run("未知账号返回 ErrAccountNotFound", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, &fakeProber{}, 0, nil, nil)

		_, err := svc.Send(context.Background(), "missing", validReq)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("收件人地址非法时拒绝", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		sender := &fakeSender{}
		svc := NewMailService(store, &fakeFetcher{}, sender, &fakeProber{}, 0, nil, nil)

		_, err := svc.Send(context.Background(), "acc-1", &domain.SendRequest{To: "not-an-email"})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		assert.Equal(t, 0, sender.calls)
	})

	t.Run("超过速率限制返回 ErrSendRateLimited", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		sender := &fakeSender{result: &domain.SendResult{MessageID: "<1@example.com>"}}
		svc := NewMailService(store, &fakeFetcher{}, sender, &fakeProber{}, 1, nil, nil)

		_, err := svc.Send(context.Background(), "acc-1", validReq)
		require.NoError(t, err)

		_, err = svc.Send(context.Background(), "acc-1", validReq)
		assert.ErrorIs(t, err, ErrSendRateLimited)
	})

	t.Run("投递失败透传错误", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		sendErr := errors.New("550 rejected")
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{err: sendErr}, &fakeProber{}, 0, nil, nil)

		_, err := svc.Send(context.Background(), "acc-1", validReq)
		assert.ErrorIs(t, err, sendErr)
	})
}

func TestMailService_Probe(t *testing.T) {
	t.Run("返回探测结果", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		prober := &fakeProber{result: domain.ProbeResult{Success: true, Detail: "连接成功"}}
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, prober, 0, nil, nil)

		result, err := svc.Probe(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "连接成功", result.Detail)
	})

	t.Run("探测失败不产生错误", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, "acc-1", "a@example.com", true)

		prober := &fakeProber{result: domain.ProbeResult{Success: false, Detail: "connection timed out"}}
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, prober, 0, nil, nil)

		result, err := svc.Probe(context.Background(), "acc-1")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "connection timed out", result.Detail)
	})

	t.Run("未知账号返回 ErrAccountNotFound", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewMailService(store, &fakeFetcher{}, &fakeSender{}, &fakeProber{}, 0, nil, nil)

		_, err := svc.Probe(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
