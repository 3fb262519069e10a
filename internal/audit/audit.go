// Package audit records one SessionRecord per completed driver operation
// and best-effort archives the full session log to object storage.
package audit

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/model"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
	"gorm.io/gorm"
)

// Record is what the client facade hands the service once an operation
// completes; it carries everything needed to build a model.SessionRecord
// and, optionally, archive the session log.
type Record struct {
	DeviceKind string
	Host       string
	Operation  model.Operation
	Success    bool
	Err        error
	SessionLog string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Service writes Records to SQLite and, if object storage is configured,
// uploads the session log asynchronously. Construct with New.
type Service struct {
	db     *gorm.DB
	minio  *minio.Client
	bucket string

	jobs chan job
}

type job struct {
	record Record
	rowID  string
}

// New builds a Service backed by db. If storageCfg names a usable MinIO
// endpoint, archival is enabled; otherwise every record is written to
// SQLite only (SPEC_FULL.md §6.5).
func New(db *gorm.DB, storageCfg config.MinioConfig) *Service {
	s := &Service{db: db, jobs: make(chan job, 64)}

	if strings.TrimSpace(storageCfg.Host) != "" && storageCfg.Port > 0 {
		endpoint := fmt.Sprintf("%s:%d", storageCfg.Host, storageCfg.Port)
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(storageCfg.AccessKey, storageCfg.SecretKey, ""),
			Secure: storageCfg.Secure,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		})
		if err != nil {
			logger.Warn("audit: minio client initialization failed", err)
		} else {
			s.minio = client
			s.bucket = storageCfg.Bucket
		}
	}

	for i := 0; i < 4; i++ {
		go s.archiveWorker()
	}
	return s
}

// Write persists rec synchronously to SQLite and, if archival is enabled,
// enqueues a best-effort object-storage upload that never blocks the
// caller (SPEC_FULL.md §5's bounded-worker-pool rule for slow I/O).
func (s *Service) Write(rec Record) error {
	row := model.SessionRecord{
		ID:         uuid.NewString(),
		DeviceKind: rec.DeviceKind,
		Host:       rec.Host,
		Operation:  rec.Operation,
		Success:    rec.Success,
		SessionLog: rec.SessionLog,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
	if rec.Err != nil {
		row.ErrorMessage = rec.Err.Error()
	}

	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("audit: failed to write session record: %w", err)
	}

	if s.minio != nil && rec.SessionLog != "" {
		select {
		case s.jobs <- job{record: rec, rowID: row.ID}:
		default:
			logger.Device(rec.DeviceKind, rec.Host).WithField("row_id", row.ID).Warn("audit: archive queue full, dropping upload")
		}
	}

	return nil
}

func (s *Service) archiveWorker() {
	for j := range s.jobs {
		s.archive(j)
	}
}

func (s *Service) archive(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s/%s/%d-%s.log", j.record.Host, j.record.Operation, j.record.FinishedAt.Unix(), j.rowID)
	data := []byte(j.record.SessionLog)

	_, err := s.minio.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		logger.Device(j.record.DeviceKind, j.record.Host).WithError(err).Error("audit: session log archive failed")
		return
	}

	uri := "minio://" + s.bucket + "/" + key
	if uerr := s.db.Model(&model.SessionRecord{}).Where("id = ?", j.rowID).Update("archive_uri", uri).Error; uerr != nil {
		logger.Device(j.record.DeviceKind, j.record.Host).WithError(uerr).Error("audit: failed to record archive uri")
	}
}
