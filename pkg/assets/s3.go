package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/slug"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO, R2, LocalStack...
	Prefix    string // key prefix, e.g. "fonts/"
	AccessKey string
	SecretKey string
}

// S3API is the subset of the s3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps the same layout as LocalFS as object keys under Prefix.
// Object stores have no directories, so partition cleanup is a no-op.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
	log    *logrus.Entry
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		log:    logrus.WithField("module", "assets.s3"),
	}
}

func (s *S3Store) key(rel string) (string, error) {
	clean, err := CleanRel(rel)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

func (s *S3Store) Write(ctx context.Context, src io.Reader, family, filename string) (*Object, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to read the uploaded font")
	}
	sum := sha256.Sum256(data)

	familySlug := slug.Make(family)
	base, ext := splitFilename(filename)
	ts := s.now().Unix()
	for i := 0; i < maxNameAttempts; i++ {
		rel := familySlug + "/" + uniqueName(base, ext, ts, i)
		err := s.putNew(ctx, s.prefix+rel, data, contentType(ext))
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fonterr.Wrap(err, fonterr.CopyFailed, "Failed to upload the font to bucket %s", s.bucket)
		}
		ok, err := s.Exists(ctx, rel)
		if err != nil || !ok {
			return nil, fonterr.New(fonterr.FileNotCopied, "The font file was not stored at %s", rel)
		}
		return &Object{Path: rel, Size: int64(len(data)), Hash: hex.EncodeToString(sum[:])}, nil
	}
	return nil, fonterr.New(fonterr.CopyFailed, "Could not find a free object name for %s.%s", base, ext)
}

// putNew is a conditional put: it never replaces an existing key.
func (s *S3Store) putNew(ctx context.Context, key string, data []byte, ctype string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ctype),
		IfNoneMatch: aws.String("*"),
	})
	if isPreconditionFailed(err) {
		return errors.Wrapf(fs.ErrExist, "put %s", key)
	}
	return err
}

func (s *S3Store) Delete(ctx context.Context, rel string) error {
	key, err := s.key(rel)
	if err != nil {
		return err
	}
	// DeleteObject on a missing key succeeds
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "s3 delete %s", key)
}

func (s *S3Store) Hash(ctx context.Context, rel string) (string, error) {
	body, err := s.Open(ctx, rel)
	if err != nil {
		return "", err
	}
	defer body.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, body); err != nil {
		return "", errors.Wrapf(err, "hash %s", rel)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *S3Store) Open(ctx context.Context, rel string) (io.ReadCloser, error) {
	key, err := s.key(rel)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, notFoundAsErrNotExist(err, key)
	}
	return out.Body, nil
}

func (s *S3Store) Exists(ctx context.Context, rel string) (bool, error) {
	key, err := s.key(rel)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "s3 head %s", key)
}

func (s *S3Store) Move(ctx context.Context, from, to string) error {
	src, err := s.key(from)
	if err != nil {
		return err
	}
	dst, err := s.key(to)
	if err != nil {
		return err
	}
	if ok, err := s.Exists(ctx, to); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(fs.ErrExist, "move %s -> %s", from, to)
	}
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(url.PathEscape(s.bucket + "/" + src)),
	})
	if err != nil {
		return errors.Wrapf(notFoundAsErrNotExist(err, src), "s3 copy %s -> %s", src, dst)
	}
	return s.Delete(ctx, from)
}

func (s *S3Store) Put(ctx context.Context, rel string, src io.Reader) error {
	key, err := s.key(rel)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return errors.Wrapf(err, "read %s", rel)
	}
	i := strings.LastIndexByte(rel, '.')
	return s.putNew(ctx, key, data, contentType(strings.ToLower(rel[i+1:])))
}

func (s *S3Store) PutArtifact(ctx context.Context, name string, data []byte) error {
	name, err := artifactName(name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.prefix + name),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("text/css; charset=utf-8"),
		CacheControl: aws.String("no-cache"),
	})
	return errors.Wrapf(err, "s3 put %s", name)
}

func (s *S3Store) ReadArtifact(ctx context.Context, name string) ([]byte, time.Time, error) {
	name, err := artifactName(name)
	if err != nil {
		return nil, time.Time{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		return nil, time.Time{}, notFoundAsErrNotExist(err, name)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, time.Time{}, errors.Wrapf(err, "read artifact %s", name)
	}
	return data, aws.ToTime(out.LastModified), nil
}

func (s *S3Store) StatArtifact(ctx context.Context, name string) (time.Time, bool, error) {
	name, err := artifactName(name)
	if err != nil {
		return time.Time{}, false, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if isNotFound(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "s3 head %s", name)
	}
	return aws.ToTime(out.LastModified), true, nil
}

// Purge deletes every object under the prefix.
func (s *S3Store) Purge(ctx context.Context) error {
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return errors.Wrap(err, "s3 list")
		}
		for _, obj := range out.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return errors.Wrapf(err, "s3 delete %s", aws.ToString(obj.Key))
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		token = out.NextContinuationToken
	}
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nk)
}

func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var apiErr interface{ ErrorCode() string }
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

func notFoundAsErrNotExist(err error, key string) error {
	if isNotFound(err) {
		return errors.Wrapf(fs.ErrNotExist, "s3 get %s", key)
	}
	return errors.Wrapf(err, "s3 get %s", key)
}

func contentType(ext string) string {
	switch ext {
	case "woff2":
		return "font/woff2"
	case "woff":
		return "font/woff"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	}
	return "application/octet-stream"
}
