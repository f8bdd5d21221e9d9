package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the client surface S3Store needs; allows test fakes.
type s3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
}

// S3Store keeps artifacts under a bucket prefix.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3 creates an S3-backed store honoring env configuration for MinIO.
// Env support: AWS_REGION, AWS_ENDPOINT_URL_S3, AWS_S3_FORCE_PATH_STYLE.
func NewS3(ctx context.Context, uri string) (*S3Store, error) {
	bucket, prefix, err := parseS3(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func parseS3(uri string) (bucket, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	bucket = u.Host
	prefix = strings.Trim(u.Path, "/")
	if bucket == "" {
		return "", "", errors.New("invalid s3 uri")
	}
	return
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Put uploads body; S3 object writes are atomic so retries overwrite in place.
func (s *S3Store) Put(ctx context.Context, name string, body io.Reader) (string, error) {
	k := s.key(name)
	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{Bucket: &s.bucket, Key: &k, Body: body})
	if err != nil {
		return "", err
	}
	return "s3://" + s.bucket + "/" + k, nil
}

func (s *S3Store) List(ctx context.Context, ext string) ([]string, error) {
	in := &s3.ListObjectsV2Input{Bucket: &s.bucket}
	if s.prefix != "" {
		in.Prefix = aws.String(s.prefix + "/")
	}
	p := s3.NewListObjectsV2Paginator(s.client, in)
	var out []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if path.Ext(name) == ext {
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
