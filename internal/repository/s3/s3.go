// Package s3 keeps workouts in an S3 compatible bucket, one object per
// workout at <prefix>/<username>/<id>.json. Object bodies are the same JSON
// the disk backend writes, so a bucket can be seeded by copying a data
// directory.
package s3

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

const (
	objectExt              = ".json"
	defaultReadConcurrency = 8
)

type Config struct {
	// Endpoint is set for S3 compatible services such as MinIO. Empty means AWS.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type Option func(s *Store)

func WithClock(clock clock.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

var _ repository.WorkoutRepository = (*Store)(nil)

type Store struct {
	client *s3.Client
	bucket string
	prefix string
	clock  clock.Clock
	log    *logger.Logger

	// S3 has no compare and swap for our purposes; writers in this process
	// are serialized per object.
	locks repository.KeyedMutex
}

// NewClient builds an S3 client for cfg. Path style addressing is forced
// when a custom endpoint is configured, as MinIO requires it.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	loadOpts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func New(client *s3.Client, bucket, prefix string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 store requires a bucket")
	}
	s := &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		clock:  clock.RealClock{},
		log:    logger.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("backend", "s3", "bucket", bucket)
	return s, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) userPrefix(username string) string {
	if s.prefix == "" {
		return username + "/"
	}
	return s.prefix + "/" + username + "/"
}

func (s *Store) objectKey(username, id string) string {
	return s.userPrefix(username) + id + objectExt
}

// isNotFound reports whether err is S3's answer for a missing key or bucket.
// HEAD responses carry no body, so they surface as a bare NotFound code.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsk) || errors.As(err, &nf) || errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}

func (s *Store) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}

	prefix := s.userPrefix(username)
	var ids []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return []domain.Workout{}, nil
			}
			return nil, fmt.Errorf("list workouts of %s: %w", username, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(name, "/") || strings.HasPrefix(name, ".") || path.Ext(name) != objectExt {
				continue
			}
			ids = append(ids, strings.TrimSuffix(name, objectExt))
		}
	}

	loaded := make([]*domain.Workout, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultReadConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			w, err := s.read(gctx, username, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("skipping unreadable workout object",
					"username", username, "key", s.objectKey(username, id), "error", err)
				return nil
			}
			loaded[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Workout, 0, len(loaded))
	for _, w := range loaded {
		if w != nil {
			out = append(out, *w)
		}
	}
	repository.SortByRecency(out)
	return out, nil
}

func (s *Store) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	return s.read(ctx, username, id)
}

func (s *Store) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	w := repository.StampCreated(draft, username, s.clock.Now())

	for {
		key := s.objectKey(username, w.ID)
		unlock := s.locks.Lock(key)
		exists, err := s.exists(ctx, key)
		if err != nil {
			unlock()
			return nil, fmt.Errorf("create workout: %w", err)
		}
		if exists {
			unlock()
			w.ID = repository.NewID()
			continue
		}
		err = s.write(ctx, w)
		unlock()
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func (s *Store) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(s.objectKey(username, id))
	defer unlock()

	existing, err := s.read(ctx, username, id)
	if err != nil {
		return nil, err
	}
	w := repository.StampUpdated(draft, existing, username, id, s.clock.Now())
	if err := s.write(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete checks for the object first because DeleteObject succeeds for
// missing keys.
func (s *Store) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}

	key := s.objectKey(username, id)
	unlock := s.locks.Lock(key)
	defer unlock()

	exists, err := s.exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	if !exists {
		return false, nil
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error("failed to delete workout object", "key", key, "error", err)
		return false, fmt.Errorf("delete workout %s: %w", id, err)
	}
	return true, nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *Store) read(ctx context.Context, username, id string) (*domain.Workout, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(username, id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read workout %s: %w", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read workout %s: %w", id, err)
	}

	var w domain.Workout
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode workout %s: %w", id, err)
	}
	w.ID = id
	w.Username = username
	w.Normalize()
	return &w, nil
}

func (s *Store) write(ctx context.Context, w *domain.Workout) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workout %s: %w", w.ID, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(w.Username, w.ID)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("write workout %s: %w", w.ID, err)
	}
	return nil
}
