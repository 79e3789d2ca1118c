package domain

import "time"

// AppointmentStatus definition appointment status
type AppointmentStatus string

const (
	// StatusScheduled 已預約，會佔用顧問時段
	StatusScheduled AppointmentStatus = "scheduled"
	// StatusCompleted 諮詢已完成
	StatusCompleted AppointmentStatus = "completed"
	// StatusCancelled 已取消
	StatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentType definition appointment type
type AppointmentType string

const (
	// TypeConsultation 初次諮詢
	TypeConsultation AppointmentType = "consultation"
	// TypeFollowup 後續追蹤
	TypeFollowup AppointmentType = "followup"
)

// Role 查詢預約時的身分
type Role string

const (
	// RoleClient 委託人
	RoleClient Role = "client"
	// RoleConsultant 顧問
	RoleConsultant Role = "consultant"
)

// Appointment 定義預約模型，不做實體刪除
type Appointment struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID string            `gorm:"index:idx_consultant_start;not null" json:"consultant_id"`
	ClientID     string            `gorm:"index;not null" json:"client_id"`
	StartTime    time.Time         `gorm:"index:idx_consultant_start;not null" json:"start_time"`
	EndTime      time.Time         `gorm:"not null" json:"end_time"`
	Duration     time.Duration     `gorm:"not null" json:"duration"`
	Status       AppointmentStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Type         AppointmentType   `gorm:"type:varchar(16);not null" json:"type"`
	Notes        string            `json:"notes,omitempty"`
	// ContactEmails 通知信收件者，取消時也寄給同一批人
	ContactEmails []string   `gorm:"serializer:json" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// Overlaps 兩個半開區間 [start, end) 是否重疊
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ScheduleAppointmentReq usecase schedule request
type ScheduleAppointmentReq struct {
	ConsultantID string          `json:"consultant_id" validate:"required"`
	ClientID     string          `json:"client_id" validate:"required"`
	StartTime    time.Time       `json:"start_time" validate:"required"`
	Duration     time.Duration   `json:"duration" validate:"gt=0"`
	Type         AppointmentType `json:"type" validate:"oneof=consultation followup"`
	Notes        string          `json:"notes" validate:"max=2000"`
	// NotifyEmails 通知信收件者，空的就不寄
	NotifyEmails []string `json:"-" validate:"dive,email"`
}

// TimeSlot 可預約時段
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// NotificationKind 通知種類
type NotificationKind string

const (
	// NotifyScheduled 新預約
	NotifyScheduled NotificationKind = "scheduled"
	// NotifyCancelled 預約取消
	NotifyCancelled NotificationKind = "cancelled"
)

// NotificationQueue rabbitmq queue name
const NotificationQueue = "appointment_notifications"

// AppointmentNotification 發到 queue 的通知內容
type AppointmentNotification struct {
	AppointmentID string           `json:"appointment_id"`
	ConsultantID  string           `json:"consultant_id"`
	ClientID      string           `json:"client_id"`
	StartTime     time.Time        `json:"start_time"`
	Duration      time.Duration    `json:"duration"`
	Kind          NotificationKind `json:"kind"`
	Emails        []string         `json:"emails,omitempty"`
}
