package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.RecordStore = (*S3Mirror)(nil)

// S3Options configures the bucket stills are uploaded to.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Session builds an AWS session. Empty credentials fall back to the
// SDK's default chain.
func NewS3Session(opts S3Options) (*session.Session, error) {
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	return sess, nil
}

// S3Mirror uploads a record's local stills to S3 and rewrites their URIs
// before passing the record to the wrapped store.
type S3Mirror struct {
	inner    domain.RecordStore
	uploader s3manageriface.UploaderAPI
	client   s3iface.S3API
	bucket   string
	prefix   string
	log      *logger.Logger
}

// NewS3Mirror wraps inner.
func NewS3Mirror(inner domain.RecordStore, uploader s3manageriface.UploaderAPI, client s3iface.S3API, opts S3Options, log *logger.Logger) *S3Mirror {
	return &S3Mirror{
		inner:    inner,
		uploader: uploader,
		client:   client,
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		log:      log,
	}
}

// NewS3MirrorFromSession wires the uploader and client from one session.
func NewS3MirrorFromSession(inner domain.RecordStore, sess *session.Session, opts S3Options, log *logger.Logger) *S3Mirror {
	return NewS3Mirror(inner, s3manager.NewUploader(sess), s3.New(sess), opts, log)
}

func (m *S3Mirror) objectKey(recordID string, angle domain.Angle) string {
	return path.Join(m.prefix, recordID, string(angle)+".jpg")
}

// Save uploads every file:// image, then saves a copy of the record whose
// URIs point at the uploaded objects. The caller's record is not modified.
// If any upload or the inner save fails, objects already uploaded for this
// record are removed again.
func (m *S3Mirror) Save(ctx context.Context, record *domain.FaceRecord) error {
	mirrored := *record
	mirrored.Images = make([]domain.CapturedImage, len(record.Images))

	var uploaded []string
	for i, img := range record.Images {
		loc, key, err := m.upload(ctx, record.ID, img)
		if err != nil {
			m.removeObjects(ctx, uploaded)
			return err
		}
		if key != "" {
			uploaded = append(uploaded, key)
		}
		mirrored.Images[i] = domain.CapturedImage{URI: loc, Angle: img.Angle}
	}

	if err := m.inner.Save(ctx, &mirrored); err != nil {
		m.removeObjects(ctx, uploaded)
		return err
	}
	return nil
}

// removeObjects deletes keys from the bucket. Failures are logged only.
func (m *S3Mirror) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		_, err := m.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			m.log.Warn("deleting s3://%s/%s: %v", m.bucket, key, err)
			continue
		}
		m.log.Debug("deleted s3://%s/%s", m.bucket, key)
	}
}

// owns reports whether uri is the location this mirror produced for key.
func (m *S3Mirror) owns(uri, key string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "s3":
		return u.Host == m.bucket && strings.TrimPrefix(u.Path, "/") == key
	case "http", "https":
		return strings.HasSuffix(u.Path, "/"+key)
	}
	return false
}

// upload sends a local still to the bucket and returns its location and
// key. Images that are not file:// URIs are passed through with no key.
func (m *S3Mirror) upload(ctx context.Context, recordID string, img domain.CapturedImage) (string, string, error) {
	u, err := url.Parse(img.URI)
	if err != nil || u.Scheme != "file" {
		return img.URI, "", nil
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return "", "", fmt.Errorf("opening still for %s: %w", img.Angle, err)
	}
	defer f.Close()

	key := m.objectKey(recordID, img.Angle)
	out, err := m.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		m.log.Error("uploading %s to s3://%s/%s: %v", img.Angle, m.bucket, key, err)
		return "", "", fmt.Errorf("uploading still for %s: %w", img.Angle, err)
	}
	m.log.Debug("uploaded %s to %s", img.Angle, out.Location)
	return out.Location, key, nil
}

// Load reads through to the wrapped store.
func (m *S3Mirror) Load(ctx context.Context, id string) (*domain.FaceRecord, error) {
	return m.inner.Load(ctx, id)
}

// List reads through to the wrapped store.
func (m *S3Mirror) List(ctx context.Context) ([]*domain.FaceRecord, error) {
	return m.inner.List(ctx)
}

// Delete removes the objects this mirror uploaded for the record, then the
// record itself. Images stored elsewhere are left alone. Object removal
// failures are logged; the record is still deleted.
func (m *S3Mirror) Delete(ctx context.Context, id string) error {
	rec, err := m.inner.Load(ctx, id)
	if err != nil {
		return err
	}
	var keys []string
	for _, img := range rec.Images {
		if key := m.objectKey(id, img.Angle); m.owns(img.URI, key) {
			keys = append(keys, key)
		}
	}
	m.removeObjects(ctx, keys)
	return m.inner.Delete(ctx, id)
}
