package domain

import "time"

// RedactedPassword 是账号对外展示时密码字段的占位值。
const RedactedPassword = "***"

// Account 表示一个独立配置的邮箱账号（IMAP 收信 + SMTP 发信）。
//
// 密码只在核心内部流转，任何离开服务边界的账号表示都必须先经过 Redacted。
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null"`
	Password  string    `json:"password" gorm:"type:varchar(255);not null"`
	IMAPHost  string    `json:"imapServer" gorm:"column:imap_host;type:varchar(255);not null"`
	IMAPPort  int       `json:"imapPort" gorm:"column:imap_port;not null"`
	SMTPHost  string    `json:"smtpServer" gorm:"column:smtp_host;type:varchar(255);not null"`
	SMTPPort  int       `json:"smtpPort" gorm:"column:smtp_port;not null"`
	IsActive  bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Redacted 返回隐藏密码后的副本。
func (a Account) Redacted() Account {
	a.Password = RedactedPassword
	return a
}
