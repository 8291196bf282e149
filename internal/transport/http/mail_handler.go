package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/mailsend"
	"mailhub/backend/internal/service"
)

type fetchErrorInfo struct {
	AccountID string `json:"accountId"`
	Error     string `json:"error"`
}

type messageListResponse struct {
	Items  []domain.Message `json:"items"`
	Count  int              `json:"count"`
	Errors []fetchErrorInfo `json:"errors,omitempty"`
}

type sendMessageRequest struct {
	AccountID string `json:"accountId" binding:"required"`
	To        string `json:"to" binding:"required"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	HTML      string `json:"html"`
}

type sendRejectedInfo struct {
	Code       int    `json:"code"`
	ServerText string `json:"serverText"`
}

// listMessages 聚合拉取邮件列表
//
// 不带 accountId 参数时拉取所有启用账号并合并；带 accountId 时只拉取该账号。
// 单个账号的拉取失败以 errors 数组透出，不影响整体请求成功。
func (h *Handler) listMessages(c *gin.Context) {
	accountID := c.Query("accountId")

	var result *service.AggregateResult
	var err error
	if accountID == "" {
		result, err = h.mail.FetchAll(c.Request.Context())
	} else {
		result, err = h.mail.FetchForAccount(c.Request.Context(), accountID)
	}
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, MsgAccountNotFound)
			return
		}
		InternalError(c, MsgMessageListFailed)
		return
	}

	fetchErrors := make([]fetchErrorInfo, 0)
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			fetchErrors = append(fetchErrors, fetchErrorInfo{
				AccountID: outcome.AccountID,
				Error:     outcome.Err.Error(),
			})
		}
	}

	Success(c, messageListResponse{
		Items:  result.Messages,
		Count:  len(result.Messages),
		Errors: fetchErrors,
	})
}

// sendMessage 以指定账号身份发送邮件
func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.mail.Send(c.Request.Context(), req.AccountID, &domain.SendRequest{
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
	})
	if err != nil {
		var sendErr *mailsend.SendError
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			NotFound(c, MsgAccountNotFound)
		case errors.Is(err, service.ErrSendRateLimited):
			TooManyRequests(c, GetErrorMessage(err))
		case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrEmailTooLong):
			BadRequest(c, GetErrorMessage(err))
		case errors.As(err, &sendErr):
			// 中继拒绝：透出服务器的原始拒绝文案
			BadGateway(c, MsgSendFailed, sendRejectedInfo{
				Code:       sendErr.Code,
				ServerText: sendErr.ServerText,
			})
		default:
			InternalError(c, MsgSendFailed)
		}
		return
	}

	Success(c, result)
}

// probeAccount 测试账号收信服务器的连通性
func (h *Handler) probeAccount(c *gin.Context) {
	result, err := h.mail.Probe(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, MsgAccountNotFound)
			return
		}
		InternalError(c, MsgProbeFailed)
		return
	}

	Success(c, result)
}
