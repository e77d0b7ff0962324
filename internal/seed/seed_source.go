package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func S3ConfigFromEnv() S3Config {
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return S3Config{
		Region:    region,
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		AccessKey: os.Getenv("S3_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_SECRET_KEY"),
	}
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

func newS3Client(ctx context.Context, cfg S3Config) (objectGetter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Loader reads seed inputs from local paths or s3://bucket/key locations.
// The S3 client is created on first use.
type Loader struct {
	s3cfg S3Config

	mu     sync.Mutex
	getter objectGetter
}

func NewLoader(cfg S3Config) *Loader {
	return &Loader{s3cfg: cfg}
}

func ParseS3Location(location string) (bucket, key string, err error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Location, location)
	}
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Location, location)
	}
	return bucket, key, nil
}

func (l *Loader) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return os.Open(location)
	}

	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	getter, err := l.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	return out.Body, nil
}

func (l *Loader) client(ctx context.Context) (objectGetter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getter != nil {
		return l.getter, nil
	}
	g, err := newS3Client(ctx, l.s3cfg)
	if err != nil {
		return nil, err
	}
	l.getter = g
	return g, nil
}

// LoadFile decodes every record of kind at location. The format follows the
// file extension.
func (l *Loader) LoadFile(ctx context.Context, kind Kind, location string) ([]Record, error) {
	format, err := FormatFromPath(location)
	if err != nil {
		return nil, err
	}

	rc, err := l.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := Decode(kind, format, rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return records, nil
}

var kindFileExtensions = []string{".yaml", ".yml", ".json", ".csv", ".xlsx"}

// FindKindFile returns dir/<kind>.<ext> for the first extension that exists.
func FindKindFile(dir string, kind Kind) (string, error) {
	for _, ext := range kindFileExtensions {
		p := filepath.Join(dir, string(kind)+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no %s input in %s: %w", kind, dir, os.ErrNotExist)
}
