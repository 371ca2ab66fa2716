// Package archive writes finished case results to object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"kycflow/internal/kyc/models"
)

// Config selects the bucket and, for S3-compatible stores, the endpoint.
type Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

func (c Config) Enabled() bool { return c.Bucket != "" }

// ObjectPutter is the slice of the S3 API the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the default credential chain.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// S3Archiver stores one JSON object per case, partitioned by completion day.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Archiver(client ObjectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (a *S3Archiver) Name() string { return "s3_archive" }

func (a *S3Archiver) Publish(ctx context.Context, res *models.CaseResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal case result: %w", err)
	}
	key := a.Key(res)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"case-id":        res.CaseID.String(),
			"recommendation": string(res.Summary.Recommendation),
		},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// Key is {prefix}/{yyyy}/{mm}/{dd}/{case_id}.json in UTC.
func (a *S3Archiver) Key(res *models.CaseResult) string {
	day := res.CompletedAt.UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, res.CaseID.String()+".json")
}
