package library

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// File is an uploaded document. Path is a key in the configured object store;
// Data.content caches the extracted text.
type File struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Filename  string         `gorm:"column:filename;type:text;not null" json:"filename"`
	Path      string         `gorm:"column:path;type:text" json:"path,omitempty"`
	Hash      string         `gorm:"column:hash;type:varchar(64);index" json:"hash,omitempty"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	Meta      datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (File) TableName() string { return "file" }

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *File) HasBlob() bool { return strings.TrimSpace(f.Path) != "" }

// Knowledge is a named retrieval corpus over a set of files. Its vector
// collection is named by its id.
type Knowledge struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string         `gorm:"column:name;type:text;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Data        datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Knowledge) TableName() string { return "knowledge" }

func (k *Knowledge) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// Model is a registered chat model. ID is the externally visible model id.
type Model struct {
	ID          string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;type:text;not null" json:"name"`
	BaseModelID string    `gorm:"column:base_model_id;type:text" json:"base_model_id,omitempty"`
	Provider    string    `gorm:"column:provider;type:varchar(64)" json:"provider,omitempty"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Model) TableName() string { return "model" }

// AppSetting is a persisted key/value switch.
type AppSetting struct {
	Key       string         `gorm:"column:key;type:varchar(128);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_setting" }
