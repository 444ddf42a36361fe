// Package evidence fetches the images decision logs point at from the object
// store. Image URLs have the form scheme://endpoint/bucket/object.
package evidence

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

// ObjectRef locates an evidence image.
type ObjectRef struct {
	Endpoint string
	Secure   bool
	Bucket   string
	Object   string
}

// ParseImageURL splits an image URL into bucket and object key.
func ParseImageURL(raw string) (ObjectRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ObjectRef{}, fmt.Errorf("invalid image url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ObjectRef{}, fmt.Errorf("image url %q: unsupported scheme %q", raw, u.Scheme)
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || bucket == "" || object == "" {
		return ObjectRef{}, fmt.Errorf("image url %q does not name a bucket and object", raw)
	}

	return ObjectRef{
		Endpoint: u.Host,
		Secure:   u.Scheme == "https",
		Bucket:   bucket,
		Object:   object,
	}, nil
}

// Downloader reads evidence objects with the configured S3 credentials.
type Downloader struct {
	client   *minio.Client
	endpoint string
	logger   log.Logger
}

func NewDownloader(opts *options.S3Options, logger log.Logger) (*Downloader, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Downloader{client: client, endpoint: opts.Endpoint, logger: logger.WithName("evidence")}, nil
}

func (d *Downloader) ref(imageURL string) (ObjectRef, error) {
	ref, err := ParseImageURL(imageURL)
	if err != nil {
		return ObjectRef{}, err
	}
	if ref.Endpoint != d.endpoint {
		d.logger.Debug("Image host differs from configured endpoint, reading through the endpoint",
			"imageHost", ref.Endpoint, "endpoint", d.endpoint)
	}
	return ref, nil
}

// Fetch copies the image to w and returns the number of bytes written.
func (d *Downloader) Fetch(ctx context.Context, imageURL string, w io.Writer) (int64, error) {
	ref, err := d.ref(imageURL)
	if err != nil {
		return 0, err
	}

	obj, err := d.client.GetObject(ctx, ref.Bucket, ref.Object, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("get object %s/%s: %w", ref.Bucket, ref.Object, err)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	if err != nil {
		return n, fmt.Errorf("read object %s/%s: %w", ref.Bucket, ref.Object, err)
	}
	return n, nil
}

// Save writes the image of l into dir and returns the file path. The file is
// named after the log id and keeps the object's extension.
func (d *Downloader) Save(ctx context.Context, l model.DecisionLog, dir string) (string, error) {
	if l.ImageURL == "" {
		return "", errors.New("decision log has no image")
	}
	ref, err := d.ref(l.ImageURL)
	if err != nil {
		return "", err
	}

	name := l.ID
	if name == "" {
		name = l.Decision.ImageID
	}
	if name == "" {
		name = strings.TrimSuffix(path.Base(ref.Object), path.Ext(ref.Object))
	}
	target := filepath.Join(dir, filepath.Base(name)+path.Ext(ref.Object))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(target)
	if err != nil {
		return "", err
	}

	n, err := d.Fetch(ctx, l.ImageURL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	d.logger.Info("Saved evidence image", "log", l.ID, "path", target, "bytes", n)
	return target, nil
}

// PresignedURL returns a time-limited URL for viewing the image without
// credentials.
func (d *Downloader) PresignedURL(ctx context.Context, imageURL string, expiry time.Duration) (string, error) {
	ref, err := d.ref(imageURL)
	if err != nil {
		return "", err
	}
	u, err := d.client.PresignedGetObject(ctx, ref.Bucket, ref.Object, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return u.String(), nil
}
