package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/devaalay/asset-service/internal/config"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
)

var basenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Service talks to the object store. Stage performs exactly one network
// write per call; retries, if wanted, belong to a wrapping policy.
type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
	useSSL     bool
	log        *slog.Logger
}

// NewService creates the object-store client and ensures the bucket exists.
func NewService(cfg *config.Config, log *slog.Logger) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Media,
		useSSL:     cfg.MinIO.UseSSL,
		log:        log,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// BuildKey synthesizes a collision-safe object key under prefix:
// {prefix}/{sanitizedBasename}-{unixMillis}-{randomSuffix}{ext}.
func BuildKey(prefix, filename string) string {
	ext := path.Ext(filename)
	basename := strings.TrimSuffix(path.Base(filename), ext)
	basename = strings.Trim(basenameSanitizer.ReplaceAllString(basename, "-"), "-")
	if basename == "" {
		basename = "file"
	}

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s/%s-%d-%s%s", strings.TrimSuffix(prefix, "/"), basename, time.Now().UnixMilli(), suffix, ext)
}

// BuildSetPrefix synthesizes a collision-safe prefix for an expanded image
// set; the expander appends {seq}_{basename} per entry.
func BuildSetPrefix(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s", strings.TrimSuffix(prefix, "/"), time.Now().UnixMilli(), suffix)
}

// Stage writes data under key and returns the durable reference. The
// reference is orphaned until a metadata record cites it.
func (s *Service) Stage(ctx context.Context, key string, data []byte, contentType string) (*types.StagedObject, error) {
	info, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, upload.StorageWrite(fmt.Sprintf("failed to store object %s", key), err)
	}

	return &types.StagedObject{
		Key:         key,
		URL:         s.ObjectURL(key),
		Filename:    path.Base(key),
		Size:        int64(len(data)),
		ContentType: contentType,
		ETag:        info.ETag,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Unstage removes a staged object. Deletion is best-effort compensation:
// failures are logged and never escalate, and deleting an already-absent key
// is not an error.
func (s *Service) Unstage(ctx context.Context, key string) {
	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return
		}
		s.log.Error("failed to unstage object", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// PresignedGetURL issues a time-bounded read URL for key.
func (s *Service) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign read URL for %s: %w", key, err)
	}
	return u.String(), nil
}

// DefaultTTL is the configured presigned URL lifetime.
func (s *Service) DefaultTTL() time.Duration {
	return time.Duration(s.config.PresignedURLTTL) * time.Second
}

// ObjectURL returns the direct (non-signed) URL for an object key.
func (s *Service) ObjectURL(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := strings.TrimPrefix(s.client.EndpointURL().String(), scheme+"://")
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, key)
}

// List returns every object under prefix. Used by the orphan sweeper.
func (s *Service) List(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}
		objects = append(objects, object)
	}

	return objects, nil
}

// MaxFileSize is the per-part upload cap in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.config.MaxFileSize
}

// MaxFileParts is the per-request file part cap.
func (s *Service) MaxFileParts() int {
	return s.config.MaxFileParts
}

// ImageExtensions is the set of archive entry extensions accepted as images.
func (s *Service) ImageExtensions() []string {
	return s.config.ImageExtensions
}
