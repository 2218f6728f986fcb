package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client is the slice of the S3 API used by the snapshot archive and the archive
// integrity check.
type Client interface {
	// BucketExists backs the archive's startup probe and the integrity bucket check.
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	// MakeBucket creates the archive bucket on first use.
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	// PutObject stores one raw provider snapshot.
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject reads an archived snapshot back for replay.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	// ListObjects walks snapshots under a provider/day prefix.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	// RemoveObject drops snapshots past the retention window.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// NewClient dials the S3-compatible store that holds archived snapshots. An https://
// endpoint turns TLS on even when use_ssl is unset.
func NewClient(cfg Config) (Client, error) {
	host, secure := splitEndpoint(cfg.Endpoint)
	mc, err := minio.New(host, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    secure || cfg.UseSSL,
		Region:    cfg.Region,
		Transport: archiveTransport(cfg.Timeout()),
	})
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}
	return &archiveClient{Client: mc}, nil
}

// splitEndpoint strips the scheme minio-go rejects and reports whether it was https.
func splitEndpoint(endpoint string) (string, bool) {
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		return host, true
	}
	return strings.TrimPrefix(endpoint, "http://"), false
}

// archiveTransport bounds every phase of a request by timeout. Uploads are best-effort and
// a slow object store must not hold a sync run.
func archiveTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

type archiveClient struct {
	*minio.Client
}

// GetObject returns the snapshot body as a plain io.ReadCloser.
func (c *archiveClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}
