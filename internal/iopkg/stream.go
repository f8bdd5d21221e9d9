package iopkg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3iface is the minimal subset of s3 client methods we use; allows test fakes.
type s3iface interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client constructs an s3 client; overridden in tests.
var newS3Client = func(ctx context.Context) (s3iface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// IsLocal reports whether uri is a bare path or a file:// URI.
func IsLocal(uri string) bool {
	return strings.HasPrefix(uri, "file://") || !strings.Contains(uri, "://")
}

// LocalPath strips a file:// scheme.
func LocalPath(uri string) string { return strings.TrimPrefix(uri, "file://") }

// Open returns a ReadCloser and (if known) size for file:// or s3:// URIs.
func Open(uri string) (io.ReadCloser, int64, error) {
	if IsLocal(uri) {
		f, err := os.Open(LocalPath(uri))
		if err != nil {
			return nil, 0, err
		}
		st, _ := f.Stat()
		var sz int64
		if st != nil {
			sz = st.Size()
		}
		return f, sz, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, 0, err
	}
	switch u.Scheme {
	case "s3":
		ctx := context.Background()
		cl, err := newS3Client(ctx)
		if err != nil {
			return nil, 0, err
		}
		resp, err := cl.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.Host), Key: aws.String(strings.TrimPrefix(u.Path, "/")),
		})
		if err != nil {
			return nil, 0, err
		}
		var sz int64
		if resp.ContentLength != nil {
			sz = *resp.ContentLength
		}
		return resp.Body, sz, nil
	default:
		return nil, 0, errors.New("unsupported scheme: " + u.Scheme)
	}
}

func OpenReader(uri string) (io.ReadCloser, error) {
	rc, _, err := Open(uri)
	return rc, err
}

// Create creates a local file (file scheme). For S3 use CreateWriter with s3://.
func Create(path string) (io.Writer, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// OpenAppend opens a local file for appending, creating it if needed.
// Append-only logs live on local disk; object stores cannot append.
func OpenAppend(uri string) (*os.File, error) {
	if !IsLocal(uri) {
		return nil, errors.New("append requires a local path: " + uri)
	}
	p := LocalPath(uri)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// CreateWriter supports file:// and s3://
func CreateWriter(uri string) (io.Writer, io.Closer, error) {
	if IsLocal(uri) {
		return Create(LocalPath(uri))
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "s3":
		// buffer in memory and upload on Close
		var buf bytes.Buffer
		done := false
		return &buf, closerFunc(func() error {
			if done {
				return nil
			}
			done = true
			ctx := context.Background()
			cl, err := newS3Client(ctx)
			if err != nil {
				return err
			}
			_, err = cl.PutObject(ctx, &s3.PutObjectInput{
				Bucket: aws.String(u.Host),
				Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
				Body:   bytes.NewReader(buf.Bytes()),
			})
			return err
		}), nil
	default:
		return nil, nil, errors.New("unsupported scheme for CreateWriter: " + u.Scheme)
	}
}

// CountLines returns the number of newline-terminated or trailing lines in uri.
// A missing local file counts as zero lines.
func CountLines(uri string) (int, error) {
	rc, err := OpenReader(uri)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer rc.Close()
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
