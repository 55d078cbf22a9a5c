package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
)

// Options configures an S3 bucket as the PDF store.
type Options struct {
	Region string
	Bucket string
	// Prefix is prepended to every storage key, e.g. "smartpdf/prod".
	Prefix string
	// KMSKeyID switches server side encryption from AES256 to aws:kms.
	KMSKeyID string
	// Endpoint targets an S3 compatible service instead of AWS. It implies
	// path style addressing.
	Endpoint string
}

// Store keeps PDFs in one S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	sse    func(*s3.PutObjectInput)
}

// New loads credentials from the default AWS chain.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var loaders []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, awsconfig.WithRegion(opts.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(opts.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, opts), nil
}

// NewWithClient wraps an already configured client. Region and Endpoint are ignored.
func NewWithClient(client *s3.Client, opts Options) *Store {
	st := &Store{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
	}
	if kms := strings.TrimSpace(opts.KMSKeyID); kms != "" {
		st.sse = func(in *s3.PutObjectInput) {
			in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
			in.SSEKMSKeyId = aws.String(kms)
		}
	} else {
		st.sse = func(in *s3.PutObjectInput) {
			in.ServerSideEncryption = s3types.ServerSideEncryptionAes256
		}
	}
	return st
}

func (s *Store) Save(ctx context.Context, storageKey, contentType string, r io.Reader) (int64, error) {
	key, err := s.resolve(ctx, storageKey)
	if err != nil {
		return 0, err
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	s.sse(in)

	// Seekable bodies let the SDK sign the payload and set Content-Length.
	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err == nil {
			_, err = rs.Seek(0, io.SeekStart)
		}
		if err != nil {
			return 0, fmt.Errorf("s3 put %s: seek body: %w", key, err)
		}
		in.Body = rs
		in.ContentLength = aws.Int64(size)
		if _, err := s.client.PutObject(ctx, in); err != nil {
			return 0, s.wrap("put", key, err)
		}
		return size, nil
	}

	body := &sizeReader{Reader: r}
	in.Body = body
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return 0, s.wrap("put", key, err)
	}
	return body.size, nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	key, err := s.resolve(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, storageKey)
		}
		return nil, s.wrap("get", key, err)
	}
	return out.Body, nil
}

// Delete is idempotent; a missing key is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	key, err := s.resolve(ctx, storageKey)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil && !notFound(err) {
		return s.wrap("delete", key, err)
	}
	return nil
}

func (s *Store) resolve(ctx context.Context, storageKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return "", err
	}
	return withPrefix(s.prefix, clean), nil
}

func (s *Store) wrap(op, key string, err error) error {
	return fmt.Errorf("s3 %s s3://%s/%s: %w", op, s.bucket, key, err)
}

func notFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var re *smithyhttp.ResponseError
	switch {
	case errors.As(err, &nsk):
		return true
	case errors.As(err, &re):
		return re.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}

func withPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return path.Join(prefix, key)
}

type sizeReader struct {
	io.Reader
	size int64
}

func (r *sizeReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.size += int64(n)
	return n, err
}

var _ object.ObjectStore = (*Store)(nil)
