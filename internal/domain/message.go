package domain

import "time"

// DefaultSubject 是源邮件缺失主题时使用的占位主题。
const DefaultSubject = "无主题"

// Message 表示从某个账号收件箱拉取并归一化后的一封邮件。
//
// 身份由 AccountID + UID 组成；UID 是服务器分配的序号，仅在单账号内有意义。
// Date 恒为有效时间（缺失时取拉取时刻），Content 恒为字符串（缺失时为空串）。
type Message struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Subject   string    `json:"subject"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Date      time.Time `json:"date"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"isRead"`
	IsStarred bool      `json:"isStarred"`
	UID       uint32    `json:"uid"`
}

// FetchOutcome 表示单个账号一次拉取的结果：消息列表与失败原因二者只居其一。
// 一个账号的失败不会影响其他账号的成功结果。
type FetchOutcome struct {
	AccountID string
	Messages  []Message
	Err       error
}

// SendRequest 描述一次外发请求。Text 为纯文本正文，HTML 可选。
type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// SendResult 表示中继服务器接受投递后的结果。
type SendResult struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response"`
}

// ProbeResult 表示一次连通性探测的结构化结果，探测永远不抛出错误。
type ProbeResult struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
}
