package domain

import "time"

// MessageRole 聊天消息角色
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
	MessageRoleSystem    MessageRole = "SYSTEM"
)

// Thread 聊天线程（创建者私有）
type Thread struct {
	UID          string     `json:"uid" db:"uid"`
	Title        string     `json:"title" db:"title"`
	CreatedByUID string     `json:"createdByUid" db:"created_by_uid"`
	Messages     []*Message `json:"messages,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Message 聊天消息
type Message struct {
	UID       string      `json:"uid" db:"uid"`
	ThreadUID string      `json:"threadUid" db:"thread_uid"`
	Role      MessageRole `json:"role" db:"role"`
	Content   string      `json:"content" db:"content"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// QASession 问答会话（创建者私有）
type QASession struct {
	UID             string            `json:"uid" db:"uid"`
	UserUID         string            `json:"userUid" db:"user_uid"`
	Title           string            `json:"title" db:"title"`
	Transcription   *string           `json:"transcription" db:"transcription"`
	QuestionAnswers []*QuestionAnswer `json:"questionAnswers"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
}

// QuestionAnswer 一组问题与回答
type QuestionAnswer struct {
	UID          string    `json:"uid" db:"uid"`
	QASessionUID string    `json:"qaSessionUid" db:"qa_session_uid"`
	Question     string    `json:"question" db:"question"`
	Answer       *string   `json:"answer" db:"answer"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
