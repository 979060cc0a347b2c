package models

import (
	"time"

	"gorm.io/datatypes"
)

// SettingsRecord persists a named configuration blob. The inquiry plugin keeps
// a single record holding the default credential pair, UTM field mappings and
// the alternate credential dictionary.
type SettingsRecord struct {
	Name      string         `gorm:"primaryKey;size:128"`
	Value     datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheEntry represents a cached value stored in the database-backed cache.
// It backs the requirements cache, the nonce registry and rate limiting.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
