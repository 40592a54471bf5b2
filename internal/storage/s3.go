package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

var _ Client = (*S3Client)(nil)

// S3Config holds connection settings for an AWS or S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// S3Client implements Client over the AWS SDK v2.
type S3Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	logger  *zap.Logger
}

// NewS3Client creates an S3 storage client.
func NewS3Client(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Client, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger,
	}, nil
}

func (c *S3Client) Put(ctx context.Context, bucket, object string, data io.Reader, size int64, opts PutOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(object),
		Body:     data,
		Metadata: opts.Tags,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	result, err := c.client.PutObject(ctx, input)
	if err != nil {
		return "", opError("put", bucket, object, translateS3Err(err))
	}
	return aws.ToString(result.ETag), nil
}

func (c *S3Client) Get(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, opError("get", bucket, object, translateS3Err(err))
	}
	return result.Body, nil
}

func (c *S3Client) Delete(ctx context.Context, bucket, object string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return opError("delete", bucket, object, translateS3Err(err))
	}
	return nil
}

func (c *S3Client) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, opError("head", bucket, object, translateS3Err(err))
	}
	return true, nil
}

func (c *S3Client) Presign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", opError("presign", bucket, object, err)
	}
	return req.URL, nil
}

func (c *S3Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, opError("head-bucket", bucket, "", translateS3Err(err))
	}
	return true, nil
}

func (c *S3Client) MakeBucket(ctx context.Context, bucket string) error {
	_, err := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return opError("create-bucket", bucket, "", translateS3Err(err))
	}
	return nil
}

func translateS3Err(err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return ErrObjectNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		// The SDK produced no service response: the endpoint itself is
		// unreachable.
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
