package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

type fakeUploader struct {
	mu      sync.Mutex
	keys    []string
	bodies  map[string]string
	failKey string
}

func (u *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return u.UploadWithContext(context.Background(), in, opts...)
}

func (u *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := aws.StringValue(in.Key)
	if key == u.failKey {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if u.bodies == nil {
		u.bodies = make(map[string]string)
	}
	u.keys = append(u.keys, key)
	u.bodies[key] = string(body)
	return &s3manager.UploadOutput{
		Location: "https://" + aws.StringValue(in.Bucket) + ".s3.amazonaws.com/" + key,
	}, nil
}

// fakeS3 implements only the calls S3Mirror makes.
type fakeS3 struct {
	s3iface.S3API
	mu      sync.Mutex
	deleted []string
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func writeStills(t *testing.T, id string) *domain.FaceRecord {
	t.Helper()
	dir := t.TempDir()
	rec := &domain.FaceRecord{ID: id, SessionID: "s", CreatedAt: time.Now()}
	for _, a := range domain.Angles() {
		p := filepath.Join(dir, string(a)+".jpg")
		if err := os.WriteFile(p, []byte("jpeg-"+string(a)), 0o644); err != nil {
			t.Fatalf("write still: %v", err)
		}
		rec.Images = append(rec.Images, domain.CapturedImage{URI: "file://" + p, Angle: a})
	}
	return rec
}

func TestS3MirrorUploadsAndRewrites(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	inner := NewMemoryStore(log)
	up := &fakeUploader{}
	mirror := NewS3Mirror(inner, up, &fakeS3{}, S3Options{Bucket: "faces", Prefix: "enroll"}, log)
	ctx := context.Background()

	rec := writeStills(t, "rec-1")
	if err := mirror.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(up.keys) != 5 {
		t.Fatalf("expected 5 uploads, got %d", len(up.keys))
	}
	if got := up.bodies["enroll/rec-1/left.jpg"]; got != "jpeg-left" {
		t.Fatalf("unexpected left body %q", got)
	}

	stored, err := mirror.Load(ctx, "rec-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, img := range stored.Images {
		if !strings.HasPrefix(img.URI, "https://faces.s3.amazonaws.com/enroll/rec-1/") {
			t.Fatalf("expected uploaded URI, got %q", img.URI)
		}
	}
	if !strings.HasPrefix(rec.Images[0].URI, "file://") {
		t.Fatal("caller's record was modified")
	}
}

func TestS3MirrorUploadFailureSavesNothing(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	inner := NewMemoryStore(log)
	up := &fakeUploader{failKey: "rec-2/up.jpg"}
	client := &fakeS3{}
	mirror := NewS3Mirror(inner, up, client, S3Options{Bucket: "faces"}, log)
	ctx := context.Background()

	if err := mirror.Save(ctx, writeStills(t, "rec-2")); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := inner.Load(ctx, "rec-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected nothing saved, got %v", err)
	}
	if len(up.keys) != 3 {
		t.Fatalf("expected 3 uploads before the failure, got %v", up.keys)
	}
	if !reflect.DeepEqual(client.deleted, up.keys) {
		t.Fatalf("uploaded %v but deleted %v", up.keys, client.deleted)
	}
}

// failingStore rejects every Save.
type failingStore struct{ *MemoryStore }

func (failingStore) Save(context.Context, *domain.FaceRecord) error {
	return errors.New("store offline")
}

func TestS3MirrorInnerSaveFailureRemovesUploads(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	up := &fakeUploader{}
	client := &fakeS3{}
	mirror := NewS3Mirror(failingStore{NewMemoryStore(log)}, up, client, S3Options{Bucket: "faces"}, log)

	if err := mirror.Save(context.Background(), writeStills(t, "rec-4")); err == nil {
		t.Fatal("expected save error")
	}
	if len(up.keys) != 5 {
		t.Fatalf("expected 5 uploads, got %d", len(up.keys))
	}
	if !reflect.DeepEqual(client.deleted, up.keys) {
		t.Fatalf("uploaded %v but deleted %v", up.keys, client.deleted)
	}
}

func TestS3MirrorDeleteSkipsForeignImages(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	inner := NewMemoryStore(log)
	client := &fakeS3{}
	up := &fakeUploader{}
	mirror := NewS3Mirror(inner, up, client, S3Options{Bucket: "faces"}, log)
	ctx := context.Background()

	rec := writeStills(t, "rec-5")
	rec.Images[4].URI = "https://cdn.example.com/shared/down.jpg"
	if err := mirror.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(up.keys) != 4 {
		t.Fatalf("expected 4 uploads, got %d", len(up.keys))
	}

	if err := mirror.Delete(ctx, "rec-5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reflect.DeepEqual(client.deleted, up.keys) {
		t.Fatalf("uploaded %v but deleted %v", up.keys, client.deleted)
	}
}

func TestS3MirrorDeleteRemovesObjects(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	inner := NewMemoryStore(log)
	client := &fakeS3{}
	mirror := NewS3Mirror(inner, &fakeUploader{}, client, S3Options{Bucket: "faces"}, log)
	ctx := context.Background()

	if err := mirror.Save(ctx, writeStills(t, "rec-3")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mirror.Delete(ctx, "rec-3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(client.deleted) != 5 {
		t.Fatalf("expected 5 object deletions, got %d", len(client.deleted))
	}
	if err := mirror.Delete(ctx, "rec-3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
