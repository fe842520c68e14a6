// Package s3 reads the remote catalog from an S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/core/remote/config"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// API is the subset of the S3 client the store uses.
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements remote.Store over one bucket.
type Store struct {
	client     API
	bucket     string
	pageSize   int32
	maxResults int
}

var _ remote.Store = (*Store)(nil)

// New builds an S3 client from cfg. A custom endpoint switches to path-style
// addressing, which S3-compatible servers expect.
func New(ctx context.Context, cfg config.Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.Secure))
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, cfg config.Config) *Store {
	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		pageSize:   int32(cfg.PageSize),
		maxResults: cfg.MaxSearchResults,
	}
}

func endpointURL(endpoint string, secure bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if secure {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// isNotFound matches both HeadObject's bare 404 and GetObject-style NoSuchKey.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	key, err := remote.KeyFromID(id)
	if err != nil {
		return nil, err
	}
	if remote.IsFolderKey(key) {
		return nil, model.ErrNotFound
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("head object %s: %w", key, model.WrapError(err))
	}
	return remote.RecordFromKey(key, aws.ToInt64(out.ContentLength)), nil
}

func (s *Store) List(ctx context.Context, cursor string) (remote.Page, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(s.pageSize),
	}
	if cursor != "" {
		in.ContinuationToken = aws.String(cursor)
	}
	out, err := s.client.ListObjectsV2(ctx, in)
	if err != nil {
		return remote.Page{}, fmt.Errorf("list objects: %w", model.WrapError(err))
	}

	page := remote.Page{Entries: make([]remote.Entry, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Entries = append(page.Entries, remote.EntryFromKey(aws.ToString(obj.Key), aws.ToInt64(obj.Size)))
	}
	if aws.ToBool(out.IsTruncated) {
		page.HasMore = true
		page.Cursor = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// SearchByName scans the bucket and matches base names; S3 has no server-side
// substring search. Results are capped at the configured maximum.
func (s *Store) SearchByName(ctx context.Context, name string) ([]*model.FileRecord, error) {
	out := []*model.FileRecord{}
	if strings.TrimSpace(name) == "" {
		return out, nil
	}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(s.pageSize),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("search objects: %w", model.WrapError(err))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if remote.IsFolderKey(key) || !remote.NameMatches(key, name) {
				continue
			}
			out = append(out, remote.RecordFromKey(key, aws.ToInt64(obj.Size)))
			if s.maxResults > 0 && len(out) >= s.maxResults {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}
