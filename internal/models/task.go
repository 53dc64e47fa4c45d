package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In-progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

const (
	MaxTaskTitleLength   = 50
	MaxTaskDetailsLength = 500

	TaskDateLayout = "2006-01-02"
	TaskTimeLayout = "15:04"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID      string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Title   string     `json:"title" bson:"title" gorm:"size:50;not null"`
	Details string     `json:"details,omitempty" bson:"details" gorm:"size:500"`
	Date    string     `json:"date" bson:"scheduled_date" gorm:"column:scheduled_date;type:varchar(10)"`
	Time    string     `json:"time" bson:"scheduled_time" gorm:"column:scheduled_time;type:varchar(5)"`
	Status  TaskStatus `json:"status" bson:"status" gorm:"type:varchar(20);not null;default:'Pending'"`
	OwnerID string     `json:"ownerId" bson:"owner_id" gorm:"type:varchar(36);not null;index"`
	Owner   *User      `json:"-" bson:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// NewID returns a random identifier for a new user or task.
func NewID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (t *Task) StampCreated(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
