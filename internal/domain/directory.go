package domain

import (
	"time"
)

// Visitor is a known caller. Phone is the correlation key used to match an inbound call.
type Visitor struct {
	ID        uint      `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Phone     string    `json:"phone" gorm:"column:phone;type:varchar(64);uniqueIndex:uni_visitors_phone;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	Calls     []Call    `json:"calls,omitempty" gorm:"foreignKey:VisitorID"`
}

func (Visitor) TableName() string {
	return "visitors"
}

// Employee is a read-only directory entry resolved during a call.
type Employee struct {
	ID         uint   `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Name       string `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Department string `json:"department" gorm:"column:department;type:varchar(255)"`
	Location   string `json:"location" gorm:"column:location;type:varchar(255)"`
}

func (Employee) TableName() string {
	return "employees"
}

// Call is an append-only record of a finished call.
// CreatedAt is assigned at insert time and is the only field used for recency ordering;
// ArrivalTime is caller-supplied and never trusted for ordering.
type Call struct {
	ID             uint       `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Summary        string     `json:"summary" gorm:"column:summary;type:text"`
	ArrivalTime    *time.Time `json:"arrival_time,omitempty" gorm:"column:arrival_time"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime;index:idx_calls_visitor_created,priority:2"`
	VisitorID      uint       `json:"visitor_id" gorm:"column:visitor_id;not null;index:idx_calls_visitor_created,priority:1"`
	ExternalCallID *string    `json:"external_call_id,omitempty" gorm:"column:external_call_id;type:varchar(255);uniqueIndex:uni_calls_external_call_id"`
	Visitor        *Visitor   `json:"visitor,omitempty" gorm:"foreignKey:VisitorID;constraint:OnDelete:RESTRICT"`
}

func (Call) TableName() string {
	return "calls"
}

// CallSnapshot is the projection of a Call read by the precall hook.
type CallSnapshot struct {
	Summary     string     `json:"summary" gorm:"column:summary"`
	ArrivalTime *time.Time `json:"arrival_time,omitempty" gorm:"column:arrival_time"`
}
