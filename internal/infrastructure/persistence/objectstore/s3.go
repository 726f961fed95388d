// Package objectstore keeps documents as objects in an S3-compatible bucket
// (AWS S3, DigitalOcean Spaces, MinIO). The document version lives in object
// metadata.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
)

const versionMetaKey = "doc-version"

// Config holds bucket settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS
	AccessKey string
	SecretKey string
	Prefix    string // object key prefix, e.g. "data/"
	PathStyle bool   // required by MinIO
}

// API is the subset of *s3.Client the store uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements docstore.Store on a bucket.
//
// S3 has no conditional overwrite in this SDK version, so Put compares the
// version from HeadObject and then writes. Writers inside one process are
// serialized per key; writers in different processes can still race in the
// gap between the two calls.
type Store struct {
	api    API
	bucket string
	prefix string

	locks sync.Map // key -> *sync.Mutex
}

// NewClient builds an S3 client from Config.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// New creates a Store over api.
func New(api API, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{api: api, bucket: bucket, prefix: prefix}
}

func (s *Store) Name() string { return "s3" }

func (s *Store) objectKey(key string) string { return s.prefix + key }

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, key string) (docstore.Document, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return docstore.Document{}, shared.ErrDocumentMissing
		}
		return docstore.Document{}, docstore.Persistence("Get", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return docstore.Document{}, docstore.Persistence("Get", err)
	}
	return docstore.Document{Key: key, Data: data, Version: parseVersion(out.Metadata)}, nil
}

// Put implements docstore.Store.
func (s *Store) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	mu := s.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.currentVersion(ctx, key)
	if err != nil {
		return 0, err
	}
	if current != expectedVersion {
		return 0, shared.ErrVersionConflict
	}

	next := current + 1
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{versionMetaKey: strconv.FormatInt(next, 10)},
	})
	if err != nil {
		return 0, docstore.Persistence("Put", err)
	}
	return next, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return docstore.Persistence("Delete", err)
	}
	return nil
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, docstore.Persistence("List", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

func (s *Store) currentVersion(ctx context.Context, key string) (int64, error) {
	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, docstore.Persistence("Put", err)
	}
	return parseVersion(head.Metadata), nil
}

func (s *Store) keyLock(key string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// parseVersion reads the version from metadata. Objects written by other
// tools have none and count as version 1.
func parseVersion(meta map[string]string) int64 {
	for k, v := range meta {
		if strings.EqualFold(k, versionMetaKey) {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

var _ docstore.Store = (*Store)(nil)
