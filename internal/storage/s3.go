package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfpreview/internal/config"
)

// S3Client wraps the AWS S3 client for a single bucket.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
}

// Location is a parsed s3://bucket/key reference.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// Join returns a location with elem appended to the key.
func (l Location) Join(elem ...string) Location {
	parts := append([]string{l.Key}, elem...)
	return Location{Bucket: l.Bucket, Key: strings.TrimPrefix(path.Join(parts...), "/")}
}

// ParseURL splits s3://bucket/key. The key may be empty.
func ParseURL(s3url string) (Location, error) {
	if !strings.HasPrefix(s3url, "s3://") {
		return Location{}, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	p := strings.TrimPrefix(s3url, "s3://")
	bucket, key, _ := strings.Cut(p, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// NewS3Client creates a client for bucketName. Static keys and a custom endpoint
// are used when set in cfg; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.StorageConfig, bucketName string) (*S3Client, error) {
	var opts []func(*awscfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awscfg.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: bucketName,
	}, nil
}

// DownloadToTemp copies an object into a temp file and returns its path.
// The file keeps the key's extension so format sniffing by name still works.
func (s *S3Client) DownloadToTemp(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	ext := path.Ext(key)
	if ext == "" {
		ext = ".pdf"
	}
	f, err := os.CreateTemp("", "s3obj-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to read S3 object: %w", err)
	}

	log.Info().Str("bucket", s.bucketName).Str("key", key).Str("file", f.Name()).Msg("downloaded s3 object to temp")
	return f.Name(), nil
}

// Upload writes body to key using the multipart uploader.
func (s *S3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, in); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Debug().Str("bucket", s.bucketName).Str("key", key).Msg("uploaded object to S3")
	return nil
}
