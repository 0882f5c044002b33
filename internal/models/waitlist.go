package models

import (
	"time"

	"github.com/akeren/atelier-waitlist/pkg/constants"
)

// WaitlistEntry is one signup. Email is the unique key; the table's constraint is what
// ultimately guarantees a single row per address.
type WaitlistEntry struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (WaitlistEntry) TableName() string {
	return constants.WaitlistTable
}
