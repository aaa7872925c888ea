package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONB: invalid type")
	}
	return json.Unmarshal(bytes, j)
}

// JSONValue holds any JSON document, not only objects. Job results can be
// plain numbers or lists.
type JSONValue struct {
	V any
}

func (j JSONValue) Value() (driver.Value, error) {
	return json.Marshal(j.V)
}

func (j *JSONValue) Scan(value interface{}) error {
	if value == nil {
		j.V = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONValue: invalid type")
	}
	return json.Unmarshal(bytes, &j.V)
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j *JSONValue) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.V)
}

// ==================== ENTITIES ====================

// JobRecord is the persisted history entry for a job that reached a terminal state.
type JobRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	JobID      string     `gorm:"size:36;uniqueIndex;not null" json:"job_id"`
	Queue      string     `gorm:"size:64;not null;default:'default'" json:"queue"`
	TaskName   string     `gorm:"size:255;not null" json:"task_name"`
	FuncName   string     `gorm:"size:255" json:"func_name"`
	Status     JobStatus  `gorm:"size:20;not null;index" json:"status"`
	Args       JSONB      `gorm:"type:jsonb" json:"args"`
	Result     JSONValue  `gorm:"type:jsonb" json:"result"`
	ExcInfo    string     `gorm:"type:text" json:"exc_info,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func JobRecordFromJob(job *Job) *JobRecord {
	return &JobRecord{
		JobID:      job.ID,
		Queue:      job.Queue,
		TaskName:   job.TaskName,
		FuncName:   job.FuncName,
		Status:     job.Status,
		Args:       JSONB(job.Args),
		Result:     JSONValue{V: job.Result},
		ExcInfo:    job.ExcInfo,
		EnqueuedAt: job.EnqueuedAt,
		StartedAt:  job.StartedAt,
		EndedAt:    job.EndedAt,
	}
}
