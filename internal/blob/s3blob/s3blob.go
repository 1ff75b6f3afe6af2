// Package s3blob stores attachment payloads in an S3-compatible bucket
// (AWS S3 or MinIO). Object keys carry the owner and task ids plus an upload
// timestamp, so the same file name can be uploaded twice without clobbering
// history, and downloads go through presigned links.
package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mpetrenko/taskflow/internal/blob"
	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
)

const (
	keyPrefix  = "attachments/"
	urlExpires = 15 * time.Minute
)

// Indirections over the AWS SDK, swappable in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
	listObjectsV2 = func(c *s3.Client, ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		return c.ListObjectsV2(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config holds the bucket coordinates and static credentials. BaseEndpoint is
// set when talking to MinIO instead of AWS.
type Config struct {
	Region       string
	Bucket       string
	BaseEndpoint string
	AccessKeyID  string
	SecretKey    string
}

// Store implements blob.Store over an S3 bucket.
type Store struct {
	cfg Config
	log logging.Logger
	now func() time.Time
}

// New returns a Store for the given bucket coordinates.
func New(cfg Config, log logging.Logger) *Store {
	return &Store{cfg: cfg, log: log, now: time.Now}
}

func (s *Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKeyID,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrBackendUnavailable, err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		}
	}), nil
}

func (s *Store) objectKey(ownerID, taskID, fileName string) string {
	millis := s.now().UnixMilli()
	return fmt.Sprintf("%s%s/%s/%d_%s", keyPrefix, ownerID, taskID, millis, fileName)
}

// fileNameFromKey strips the prefix and the timestamp from a stored key,
// recovering the name the user uploaded under.
func fileNameFromKey(key string) string {
	base := path.Base(key)
	if _, name, ok := strings.Cut(base, "_"); ok {
		if _, err := strconv.ParseInt(base[:len(base)-len(name)-1], 10, 64); err == nil {
			return name
		}
	}
	return base
}

func (s *Store) presignedURL(ctx context.Context, client *s3.Client, key string) (string, error) {
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(urlExpires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *Store) Upload(ctx context.Context, ownerID, taskID, fileName string, content []byte) (*blob.Object, error) {
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, fmt.Errorf("%w: invalid file name %q", common.ErrValidation, fileName)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	key := s.objectKey(ownerID, taskID, fileName)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	url, err := s.presignedURL(ctx, client, key)
	if err != nil {
		return nil, err
	}
	return &blob.Object{Name: fileName, Key: key, URL: url, Size: int64(len(content))}, nil
}

func (s *Store) List(ctx context.Context, ownerID, taskID string) ([]*blob.Object, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%s%s/%s/", keyPrefix, ownerID, taskID)
	out, err := listObjectsV2(client, ctx, &s3.ListObjectsV2Input{
		Bucket: &s.cfg.Bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	result := make([]*blob.Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		url, err := s.presignedURL(ctx, client, key)
		if err != nil {
			return nil, err
		}
		result = append(result, &blob.Object{
			Name: fileNameFromKey(key),
			Key:  key,
			URL:  url,
			Size: aws.ToInt64(obj.Size),
		})
	}
	return result, nil
}

// Delete removes the object under key. S3 treats deleting an absent key as
// success, which matches the contract.
func (s *Store) Delete(ctx context.Context, key string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
