// Package s3blob stores assets in an S3 or S3-compatible bucket. Every call
// goes through a circuit breaker so an unreachable bucket fails fast.
package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
)

const (
	savedAtKey   = "saved-at"
	settingsName = "_settings.json"
)

// API is the subset of the S3 client the driver uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config is the configuration for an S3 driver.
type Config struct {
	Bucket string

	// Prefix is prepended to every object key, e.g. "bibweb/".
	Prefix string

	Region string

	// Endpoint overrides the AWS endpoint for S3-compatible services and
	// switches to path-style addressing.
	Endpoint string

	// AccessKey and SecretKey are optional static credentials; the default
	// AWS credential chain is used when they are empty.
	AccessKey string
	SecretKey string

	// BreakerTimeout is how long the breaker stays open. Defaults to 30s.
	BreakerTimeout time.Duration

	Logger *zap.Logger
}

// Driver implements blob.Store on S3.
type Driver struct {
	api     API
	bucket  string
	prefix  string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient builds an S3 client from c.
func NewClient(ctx context.Context, c *Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewDriver creates a driver on an existing client.
func NewDriver(api API, c *Config) (*Driver, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := c.BreakerTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	prefix := strings.TrimPrefix(c.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "s3:" + c.Bucket,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || blob.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("s3 circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Driver{
		api:     api,
		bucket:  c.Bucket,
		prefix:  prefix,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Open builds a client from c and wraps it in a driver.
func Open(ctx context.Context, c *Config) (*Driver, error) {
	client, err := NewClient(ctx, c)
	if err != nil {
		return nil, err
	}
	return NewDriver(client, c)
}

func (d *Driver) assetKey(name string) string {
	return d.prefix + "assets/" + name
}

func (d *Driver) settingsKey() string {
	return d.prefix + settingsName
}

func (d *Driver) do(fn func() (any, error)) (any, error) {
	out, err := d.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("s3 unavailable: %w", err)
	}
	return out, err
}

func isMissing(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

func (d *Driver) Put(ctx context.Context, a *blob.Asset) error {
	if a == nil || a.Name == "" {
		return errors.New("cannot store unnamed asset")
	}
	savedAt := a.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	mimeType := a.MimeType
	if mimeType == "" {
		mimeType = blob.DetectMimeType(a.Name, a.Data)
	}

	_, err := d.do(func() (any, error) {
		return d.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.bucket),
			Key:         aws.String(d.assetKey(a.Name)),
			Body:        bytes.NewReader(a.Data),
			ContentType: aws.String(mimeType),
			Metadata: map[string]string{
				savedAtKey: savedAt.Format(time.RFC3339Nano),
			},
		})
	})
	if err != nil {
		return fmt.Errorf("storing asset %q: %w", a.Name, err)
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, name string) (*blob.Asset, error) {
	out, err := d.do(func() (any, error) {
		res, err := d.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(d.assetKey(name)),
		})
		if isMissing(err) {
			return nil, blob.ErrNotFound{Name: name}
		}
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}

		a := blob.NewAsset(name, data, aws.ToString(res.ContentType))
		if ts, err := time.Parse(time.RFC3339Nano, res.Metadata[savedAtKey]); err == nil {
			a.SavedAt = ts
		} else if res.LastModified != nil {
			a.SavedAt = res.LastModified.UTC()
		}
		return a, nil
	})
	if blob.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("reading asset %q: %w", name, err)
	}
	return out.(*blob.Asset), nil
}

func (d *Driver) Has(ctx context.Context, name string) (bool, error) {
	out, err := d.do(func() (any, error) {
		_, err := d.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(d.assetKey(name)),
		})
		if isMissing(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("checking asset %q: %w", name, err)
	}
	return out.(bool), nil
}

func (d *Driver) List(ctx context.Context) ([]blob.Info, error) {
	out, err := d.do(func() (any, error) {
		var infos []blob.Info
		paginator := s3.NewListObjectsV2Paginator(d.api, &s3.ListObjectsV2Input{
			Bucket: aws.String(d.bucket),
			Prefix: aws.String(d.assetKey("")),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, obj := range page.Contents {
				name := path.Base(aws.ToString(obj.Key))
				info := blob.Info{
					Name:     name,
					Size:     aws.ToInt64(obj.Size),
					MimeType: blob.DetectMimeType(name, nil),
				}
				if obj.LastModified != nil {
					info.SavedAt = obj.LastModified.UTC()
				}
				infos = append(infos, info)
			}
		}
		return infos, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return out.([]blob.Info), nil
}

func (d *Driver) Delete(ctx context.Context, name string) error {
	_, err := d.do(func() (any, error) {
		return d.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(d.assetKey(name)),
		})
	})
	if err != nil && !isMissing(err) {
		return fmt.Errorf("deleting asset %q: %w", name, err)
	}
	return nil
}

func (d *Driver) Clear(ctx context.Context) error {
	infos, err := d.List(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := d.Delete(ctx, info.Name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) Size(ctx context.Context) (int64, error) {
	infos, err := d.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, info := range infos {
		total += info.Size
	}
	return total, nil
}

func (d *Driver) readSettings(ctx context.Context) (map[string]string, error) {
	out, err := d.do(func() (any, error) {
		settings := make(map[string]string)
		res, err := d.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(d.settingsKey()),
		})
		if isMissing(err) {
			return settings, nil
		}
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if err := json.NewDecoder(res.Body).Decode(&settings); err != nil {
			return nil, err
		}
		return settings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return out.(map[string]string), nil
}

func (d *Driver) GetSetting(ctx context.Context, key string) (string, bool, error) {
	settings, err := d.readSettings(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

func (d *Driver) SaveSetting(ctx context.Context, key, value string) error {
	settings, err := d.readSettings(ctx)
	if err != nil {
		return err
	}
	settings[key] = value
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	_, err = d.do(func() (any, error) {
		return d.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.bucket),
			Key:         aws.String(d.settingsKey()),
			Body:        bytes.NewReader(raw),
			ContentType: aws.String("application/json"),
		})
	})
	if err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (d *Driver) Close() error {
	return nil
}
