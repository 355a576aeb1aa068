package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Options configures the S3 client. Empty credentials fall back to the
// default AWS chain; Endpoint switches to path-style addressing for
// S3-compatible servers.
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// Password, when set, encrypts uploads and decrypts sealed downloads.
	Password string
}

// S3 uploads artifacts and fetches inputs.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	opts     S3Options
}

// NewS3 builds a client from opts.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	var loaders []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loaders = append(loaders, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: cli, uploader: manager.NewUploader(cli), opts: opts}, nil
}

// Bucket returns the default bucket.
func (s *S3) Bucket() string { return s.opts.Bucket }

// HeadBucket checks that the default bucket is reachable.
func (s *S3) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)})
	return err
}

// Upload writes a to bucket/key. An empty bucket uses the default one and
// an empty key is derived from the prefix and the artifact's filename.
func (s *S3) Upload(ctx context.Context, bucket, key string, a Artifact) (string, error) {
	if bucket == "" {
		bucket = s.opts.Bucket
	}
	if bucket == "" {
		return "", fmt.Errorf("s3 upload: no bucket configured")
	}
	if key == "" {
		key = s.opts.Prefix + a.Filename
	}

	body := a.Data
	meta := map[string]string{"name": a.Filename}
	for k, v := range a.Meta {
		meta[strings.ToLower(k)] = v
	}
	if s.opts.Password != "" {
		sealed, err := Encrypt(a.Data, s.opts.Password)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt data: %w", err)
		}
		body = sealed
		meta["encrypted"] = "true"
		meta["encryption-format"] = MagicCBC
	}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(a.ContentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int("bytes", len(body)).Bool("encrypted", s.opts.Password != "").Msg("uploaded artifact to S3")
	return out.Location, nil
}

// Download fetches bucket/key, decrypting it when sealed and a password is
// configured. The returned name is the stored original name, if any.
func (s *S3) Download(ctx context.Context, bucket, key string) (string, []byte, error) {
	if bucket == "" {
		bucket = s.opts.Bucket
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return "", nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read S3 object: %w", err)
	}

	name := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		name = key[i+1:]
	}
	for k, v := range out.Metadata {
		if strings.EqualFold(k, "name") && v != "" {
			name = v
		}
	}

	if IsEncrypted(data) && s.opts.Password != "" {
		if data, err = Decrypt(data, s.opts.Password); err != nil {
			return "", nil, fmt.Errorf("failed to decrypt data: %w", err)
		}
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int("bytes", len(data)).Msg("downloaded object from S3")
	return name, data, nil
}
