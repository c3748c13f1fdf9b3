package repository

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// FileStore uploads ticket artifacts and returns a durable link to them.
type FileStore interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// GCSFileStore stores artifacts as objects in a Google Cloud Storage bucket.
type GCSFileStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSFileStore builds a client from a service-account key file.  An empty
// credentialsFile falls back to the environment's default credentials.
func NewGCSFileStore(ctx context.Context, credentialsFile, bucket, prefix string) (*GCSFileStore, error) {
	const scope = gcs.ScopeReadWrite
	opts := []option.ClientOption{option.WithScopes(scope)}
	if credentialsFile != "" {
		key, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading credentials %s", credentialsFile)
		}
		source, err := google.JWTConfigFromJSON(key, scope)
		if err != nil {
			return nil, errors.Wrap(err, "creating GCS oauth token source from credentials")
		}
		opts = append(opts, option.WithTokenSource(source.TokenSource(ctx)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create google cloud client")
	}
	return &GCSFileStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Upload writes the artifact and returns its public object URL.  Objects are
// keyed by name so re-uploading the same ticket overwrites it.
func (g *GCSFileStore) Upload(ctx context.Context, data []byte, name string) (string, error) {
	object := path.Join(g.prefix, name)
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(name)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "uploading %s", object)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "finalizing %s", object)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, object), nil
}

// Close releases the underlying client.
func (g *GCSFileStore) Close() error {
	return g.client.Close()
}

// DirFileStore writes artifacts to a local directory served by the HTTP
// server under baseURL.  It pairs with the memory ticket store for local runs.
type DirFileStore struct {
	dir     string
	baseURL string
}

// NewDirFileStore creates dir if needed.
func NewDirFileStore(dir, baseURL string) (*DirFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", dir)
	}
	return &DirFileStore{dir: dir, baseURL: baseURL}, nil
}

func (d *DirFileStore) Upload(_ context.Context, data []byte, name string) (string, error) {
	p := filepath.Join(d.dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", p)
	}
	return d.baseURL + "/" + filepath.Base(name), nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
