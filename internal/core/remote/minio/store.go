// Package minio reads the remote catalog from a MinIO bucket.
package minio

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/core/remote/config"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// API is the subset of *minio.Client the store uses.
type API interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// Store implements remote.Store over one bucket.
type Store struct {
	client     API
	bucket     string
	pageSize   int
	maxResults int
}

var _ remote.Store = (*Store)(nil)

// New connects to the MinIO endpoint in cfg.
func New(cfg config.Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, cfg config.Config) *Store {
	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		pageSize:   cfg.PageSize,
		maxResults: cfg.MaxSearchResults,
	}
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	key, err := remote.KeyFromID(id)
	if err != nil {
		return nil, err
	}
	if remote.IsFolderKey(key) {
		return nil, model.ErrNotFound
	}
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("stat object %s: %w", key, model.WrapError(err))
	}
	return remote.RecordFromKey(info.Key, info.Size), nil
}

// List reads one page of a recursive listing resumed after cursor, which is
// the last key of the previous page.
func (s *Store) List(ctx context.Context, cursor string) (remote.Page, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stops the listing goroutine once the page is full

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Recursive:  true,
		StartAfter: cursor,
		MaxKeys:    s.pageSize,
	})

	page := remote.Page{Entries: make([]remote.Entry, 0, s.pageSize)}
	for obj := range objects {
		if obj.Err != nil {
			return remote.Page{}, fmt.Errorf("list objects: %w", model.WrapError(obj.Err))
		}
		if len(page.Entries) == s.pageSize {
			page.HasMore = true
			break
		}
		page.Entries = append(page.Entries, remote.EntryFromKey(obj.Key, obj.Size))
		page.Cursor = obj.Key
	}
	if !page.HasMore {
		page.Cursor = ""
	}
	return page, nil
}

func (s *Store) SearchByName(ctx context.Context, name string) ([]*model.FileRecord, error) {
	out := []*model.FileRecord{}
	if strings.TrimSpace(name) == "" {
		return out, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("search objects: %w", model.WrapError(obj.Err))
		}
		if remote.IsFolderKey(obj.Key) || !remote.NameMatches(obj.Key, name) {
			continue
		}
		out = append(out, remote.RecordFromKey(obj.Key, obj.Size))
		if s.maxResults > 0 && len(out) >= s.maxResults {
			break
		}
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
