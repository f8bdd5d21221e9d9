package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestDirStorePutOverwritesAndLists(t *testing.T) {
	dir := t.TempDir()
	st, err := NewDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, body := range []string{"first", "second"} {
		if _, err := st.Put(ctx, "00000000.jpg", strings.NewReader(body)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if _, err := st.Put(ctx, "00000001.jpg", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "labels.txt"), []byte("x\n"), 0o644)

	b, _ := os.ReadFile(filepath.Join(dir, "00000000.jpg"))
	if string(b) != "second" {
		t.Fatalf("content %q; want second", string(b))
	}
	names, err := st.List(ctx, ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "00000000.jpg" || names[1] != "00000001.jpg" {
		t.Fatalf("names %v", names)
	}
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	panic("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	panic("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	panic("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	panic("multipart not expected")
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	prefix := aws.ToString(in.Bucket) + "/"
	for k := range f.objects {
		if strings.HasPrefix(k, prefix+aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(strings.TrimPrefix(k, prefix))})
		}
	}
	return out, nil
}

func TestS3StorePutAndList(t *testing.T) {
	f := &fakeS3{objects: map[string][]byte{}}
	st := &S3Store{client: f, bucket: "data", prefix: "run1/images"}
	ctx := context.Background()

	uri, err := st.Put(ctx, "00000002.jpg", bytes.NewReader([]byte("jpeg")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if uri != "s3://data/run1/images/00000002.jpg" {
		t.Fatalf("uri %q", uri)
	}
	if string(f.objects["data/run1/images/00000002.jpg"]) != "jpeg" {
		t.Fatalf("object not stored: %v", f.objects)
	}
	f.objects["data/run1/images/notes.txt"] = nil

	names, err := st.List(ctx, ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "00000002.jpg" {
		t.Fatalf("names %v", names)
	}
}

func TestParseS3(t *testing.T) {
	b, p, err := parseS3("s3://bucket/a/b/")
	if err != nil || b != "bucket" || p != "a/b" {
		t.Fatalf("got %q %q %v", b, p, err)
	}
	if _, _, err := parseS3("gs://bucket/x"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
