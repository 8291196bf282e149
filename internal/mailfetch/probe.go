package mailfetch

import (
	"context"

	"go.uber.org/zap"

	"mailhub/backend/internal/domain"
)

// ProbeSuccessDetail 探测成功时返回的详情文案
const ProbeSuccessDetail = "连接成功"

// Probe 对账号的收信服务器做一次连通性探测
//
// 依次执行建连、认证和选择收件箱，任一阶段失败即为探测失败。
// 探测永远不返回错误，失败原因以结构化结果的 Detail 字段传递。
func (f *Fetcher) Probe(ctx context.Context, account *domain.Account) domain.ProbeResult {
	if err := ctx.Err(); err != nil {
		return domain.ProbeResult{Success: false, Detail: err.Error()}
	}

	c, err := f.dial(account)
	if err != nil {
		f.log.Info("probe failed",
			zap.String("accountId", account.ID),
			zap.String("email", account.Email),
			zap.Error(err))
		return domain.ProbeResult{Success: false, Detail: err.Error()}
	}
	defer c.Logout()

	if _, err := c.Select(f.opts.Mailbox, true); err != nil {
		f.log.Info("probe failed to open mailbox",
			zap.String("accountId", account.ID),
			zap.String("mailbox", f.opts.Mailbox),
			zap.Error(err))
		return domain.ProbeResult{Success: false, Detail: err.Error()}
	}

	return domain.ProbeResult{Success: true, Detail: ProbeSuccessDetail}
}
