package audit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: "file::memory:?cache=shared"}, &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SessionRecord{}))
	return db
}

func TestWritePersistsSessionRecordWithoutStorageConfigured(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, config.MinioConfig{})

	err := svc.Write(Record{
		DeviceKind: "junos",
		Host:       "10.0.0.1",
		Operation:  model.OpExecuteCommand,
		Success:    true,
		SessionLog: "show version\nJunos: 21.4R1",
	})
	require.NoError(t, err)

	var rows []model.SessionRecord
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "10.0.0.1", rows[0].Host)
	assert.True(t, rows[0].Success)
	assert.Empty(t, rows[0].ArchiveURI, "no archive uri should be set when object storage is unconfigured")
}

func TestWriteRecordsErrorMessageOnFailure(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, config.MinioConfig{})

	err := svc.Write(Record{
		DeviceKind: "iosxr",
		Host:       "10.0.0.2",
		Operation:  model.OpConfigureAndCommit,
		Success:    false,
		Err:        errors.New("configuration commit failed but was automatically rolled back"),
		SessionLog: "configure terminal\n...",
	})
	require.NoError(t, err)

	var row model.SessionRecord
	require.NoError(t, db.Where("host = ?", "10.0.0.2").First(&row).Error)
	assert.False(t, row.Success)
	assert.Contains(t, row.ErrorMessage, "automatically rolled back")
}
