package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/service"
)

type accountListResponse struct {
	Items []domain.Account `json:"items"`
	Count int              `json:"count"`
}

// createAccount 创建账号
func (h *Handler) createAccount(c *gin.Context) {
	var input service.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			Conflict(c, GetErrorMessage(err))
		case isValidationErr(err):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgAccountCreateFailed)
		}
		return
	}

	Created(c, account)
}

// listAccounts 列出所有账号（密码已隐藏）
func (h *Handler) listAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		InternalError(c, MsgAccountListFailed)
		return
	}

	Success(c, accountListResponse{
		Items: accounts,
		Count: len(accounts),
	})
}

// getAccount 获取账号详情（密码已隐藏）
func (h *Handler) getAccount(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, MsgAccountNotFound)
			return
		}
		InternalError(c, MsgAccountGetFailed)
		return
	}

	Success(c, account)
}

// updateAccount 更新账号；密码留空表示保留原密码
func (h *Handler) updateAccount(c *gin.Context) {
	var input service.AccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			NotFound(c, MsgAccountNotFound)
		case errors.Is(err, service.ErrEmailExists):
			Conflict(c, GetErrorMessage(err))
		case isValidationErr(err):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgAccountUpdateFailed)
		}
		return
	}

	Success(c, account)
}

// deleteAccount 删除账号
func (h *Handler) deleteAccount(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, MsgAccountNotFound)
			return
		}
		InternalError(c, MsgAccountDeleteFailed)
		return
	}

	NoContent(c)
}

// toggleAccount 翻转账号的启用状态
func (h *Handler) toggleAccount(c *gin.Context) {
	account, err := h.accounts.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			NotFound(c, MsgAccountNotFound)
			return
		}
		InternalError(c, MsgAccountToggleFailed)
		return
	}

	Success(c, account)
}

// isValidationErr 判断是否为输入验证类错误
func isValidationErr(err error) bool {
	return errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmailTooLong) ||
		errors.Is(err, domain.ErrInvalidDomain) ||
		errors.Is(err, domain.ErrInvalidPort) ||
		errors.Is(err, service.ErrPasswordRequired)
}
