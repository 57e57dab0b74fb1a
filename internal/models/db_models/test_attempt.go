package db_models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// TestAttempt is the local history row for one finished test session.
type TestAttempt struct {
	BaseModel
	SessionID     string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID        string         `gorm:"type:varchar(128);index"`
	Subtopic      string         `gorm:"type:varchar(255);index;not null"`
	Correct       int            `gorm:"not null"`
	Total         int            `gorm:"not null"`
	Answered      int            `gorm:"not null"`
	Percentage    int            `gorm:"not null;check:percentage >= 0 AND percentage <= 100"`
	FinishReason  string         `gorm:"type:varchar(32);not null"`
	AnsweredIDs   pq.StringArray `gorm:"type:text[]"`
	Answers       datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	FinishedAtSec int64          `gorm:"column:finished_at;not null"`
}
