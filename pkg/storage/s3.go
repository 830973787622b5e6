package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/utils"
)

type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PresignExpiry is how long URL links stay valid.
	PresignExpiry time.Duration
}

// S3Sink stores exports in an S3-compatible object store.
type S3Sink struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	prefix        string
	presignExpiry time.Duration
}

// NewS3Sink builds the client. Static keys are used when both are set, otherwise the default
// AWS credential chain applies.
func NewS3Sink(ctx context.Context, opts S3Options) (*S3Sink, error) {
	if opts.Bucket == "" {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "storage.NewS3Sink", "bucket is required", nil))
	}

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, utils.WrapIfNotNil(model.NewError(model.KindInvalidConfig, "storage.NewS3Sink", "aws config", err))
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	expiry := opts.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &S3Sink{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        opts.Bucket,
		prefix:        opts.Prefix,
		presignExpiry: expiry,
	}, nil
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (s *S3Sink) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &s.bucket,
	})
	return utils.WrapIfNotNil(err)
}

func (s *S3Sink) Save(ctx context.Context, key string, data []byte, contentType string) error {
	log := logging.NewLogger(ctx)
	objKey, err := s.objectKey("storage.S3Sink.Save", key)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		err = storageFailure("storage.S3Sink.Save", fmt.Sprintf("put s3://%s/%s", s.bucket, objKey), err)
		log.Errorf("error: %v", err)
		return utils.WrapIfNotNil(err)
	}
	log.Infof("bucket=%s key=%s bytes=%d", s.bucket, objKey, len(data))
	return nil
}

func (s *S3Sink) URL(ctx context.Context, key string) (string, error) {
	objKey, err := s.objectKey("storage.S3Sink.URL", key)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", utils.WrapIfNotNil(storageFailure("storage.S3Sink.URL", "presign "+objKey, err))
	}
	return req.URL, nil
}

func (s *S3Sink) Type() string { return "s3" }

func (s *S3Sink) objectKey(op string, key string) (string, error) {
	cleaned, err := cleanKey(op, key)
	if err != nil {
		return "", err
	}
	if s.prefix != "" {
		return s.prefix + "/exports/" + cleaned, nil
	}
	return "exports/" + cleaned, nil
}
