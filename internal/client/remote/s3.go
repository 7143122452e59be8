package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/goccy/go-json"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config locates the bucket. BaseEndpoint allows MinIO or R2.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// S3Store keeps each record as <prefix><entityType>/<id>.json.
type S3Store struct {
	api    s3API
	bucket string
	prefix string
}

// NewS3Store builds an S3 client from static credentials.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(api s3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{api: api, bucket: bucket, prefix: prefix}
}

func (s *S3Store) typePrefix(entityType string) string {
	return s.prefix + entityType + "/"
}

func (s *S3Store) key(entityType, id string) string {
	return s.typePrefix(entityType) + path.Base("/"+id) + ".json"
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return classifyS3Error(ctx, err)
}

func (s *S3Store) Upsert(ctx context.Context, entityType string, p models.Payload) (models.Payload, error) {
	id := models.PrimaryKey(p)
	if id == "" {
		return nil, fmt.Errorf("%w: %w", common.ErrRejected, common.ErrMissingID)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRejected, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(entityType, id)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, classifyS3Error(ctx, err)
	}
	return p, nil
}

func (s *S3Store) Delete(ctx context.Context, entityType, id string) (bool, error) {
	key := aws.String(s.key(entityType, id))

	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, classifyS3Error(ctx, err)
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return false, classifyS3Error(ctx, err)
	}
	return true, nil
}

func (s *S3Store) ListAll(ctx context.Context, entityType string) ([]models.Payload, error) {
	var out []models.Payload

	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.typePrefix(entityType)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error(ctx, err)
		}
		for _, obj := range page.Contents {
			rec, err := s.get(ctx, aws.ToString(obj.Key))
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *S3Store) get(ctx context.Context, key string) (models.Payload, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, classifyS3Error(ctx, err)
	}
	defer obj.Body.Close()

	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrUnavailable, key, err)
	}

	var p models.Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return p, nil
}

func (s *S3Store) Close() error { return nil }

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

// classifyS3Error maps service answers to ErrRejected/ErrUnauthorized and
// everything that never got an answer to ErrUnavailable. A done ctx is
// reported as ctx.Err().
func classifyS3Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden":
			return common.ErrUnauthorized
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return fmt.Errorf("%w: %s", common.ErrUnavailable, apiErr.ErrorMessage())
		}
		return fmt.Errorf("%w: %s", common.ErrRejected, apiErr.ErrorCode())
	}
	return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
}
