package httptransport

import (
	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/service"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 账号错误
	service.ErrAccountNotFound:  "账号不存在",
	service.ErrEmailExists:      "邮箱地址已存在",
	service.ErrPasswordRequired: "密码不能为空",

	// 验证错误
	domain.ErrInvalidEmail:  "邮箱地址格式无效",
	domain.ErrEmailTooLong:  "邮箱地址过长",
	domain.ErrInvalidDomain: "服务器地址格式无效",
	domain.ErrInvalidPort:   "端口号无效",

	// 外发错误
	service.ErrSendRateLimited: "发送过于频繁，请稍后重试",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 账号相关
	MsgAccountNotFound     = "账号不存在"
	MsgAccountCreateFailed = "创建账号失败"
	MsgAccountListFailed   = "获取账号列表失败"
	MsgAccountGetFailed    = "获取账号详情失败"
	MsgAccountUpdateFailed = "更新账号失败"
	MsgAccountDeleteFailed = "删除账号失败"
	MsgAccountToggleFailed = "切换账号状态失败"

	// 邮件相关
	MsgMessageListFailed = "获取邮件列表失败"
	MsgSendFailed        = "发送邮件失败"
	MsgProbeFailed       = "测试连接失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
