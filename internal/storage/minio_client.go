package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mosaicboard/internal/config"
	"mosaicboard/internal/models"
)

type Storage interface {
	UploadCardMedia(ctx context.Context, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error)
	DeleteObject(ctx context.Context, objectName string) error
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinIOClient struct {
	client    objectStore
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMinIOClient connects to MinIO and creates the media bucket when it
// does not exist yet.
func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// UploadCardMedia stores the file under cards/<cardid>/<yyyy>/<mm>/<uuid><ext>
// and returns the media record to persist on the card.
func (m *MinIOClient) UploadCardMedia(ctx context.Context, cardID int64, fileName, contentType string, file io.Reader, size int64) (*models.MediaData, error) {
	fileExt := strings.ToLower(filepath.Ext(fileName))

	if contentType == "" {
		contentType = mime.TypeByExtension(fileExt)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := m.now()
	objectName := fmt.Sprintf("cards/%d/%d/%02d/%s%s",
		cardID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		fileExt)

	info, err := m.client.PutObject(ctx, m.bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": filepath.Base(fileName),
				"card-id":           strconv.FormatInt(cardID, 10),
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	uploaded := info.Size
	if uploaded == 0 {
		uploaded = size
	}

	return &models.MediaData{
		URL:        fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName),
		ObjectName: objectName,
		FileName:   filepath.Base(fileName),
		MimeType:   contentType,
		FileSize:   uploaded,
	}, nil
}

func (m *MinIOClient) DeleteObject(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}
