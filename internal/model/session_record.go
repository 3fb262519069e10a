// Package model holds the GORM-mapped rows persisted by the audit service.
package model

import "time"

// Operation identifies which driver call a SessionRecord audits.
type Operation string

const (
	OpExecuteCommand       Operation = "execute_command"
	OpConfigureAndCommit   Operation = "configure_and_commit"
	OpRollbackConfiguration Operation = "rollback_configuration"
)

// SessionRecord is one row per completed driver operation, written by
// internal/audit once the client facade's callback fires. The driver
// package never constructs or references this type.
type SessionRecord struct {
	ID           string `gorm:"primaryKey"`
	DeviceKind   string `gorm:"index"`
	Host         string `gorm:"index"`
	Operation    Operation `gorm:"index"`
	Success      bool
	ErrorMessage string
	SessionLog   string
	ArchiveURI   string
	StartedAt    time.Time
	FinishedAt   time.Time
}
