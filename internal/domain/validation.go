package domain

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrEmailTooLong  = errors.New("email address too long")
	ErrInvalidDomain = errors.New("invalid domain format")
	ErrInvalidPort   = errors.New("invalid port number")
)

// RFC 5322 长度限制
const (
	MaxEmailLength  = 254
	MaxDomainLength = 253
)

// 域名验证（支持子域名）
var domainRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?(\.[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?)*$`)

// EmailValidator 邮箱地址验证器
type EmailValidator struct{}

// NewEmailValidator 创建邮箱地址验证器
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// ValidateEmail 完整验证邮箱地址格式
func (v *EmailValidator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ErrInvalidEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	// 使用标准库进行基础格式验证
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ErrInvalidEmail
	}

	return v.ValidateDomain(email[at+1:])
}

// ValidateDomain 验证域名格式
func (v *EmailValidator) ValidateDomain(domain string) error {
	if domain == "" || len(domain) > MaxDomainLength {
		return ErrInvalidDomain
	}
	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidatePort 验证服务器端口号
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return ErrInvalidPort
	}
	return nil
}
