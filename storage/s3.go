package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"housetracker/config"
	"housetracker/models"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads a JSON document per run to S3-compatible storage.
type S3Exporter struct {
	client objectPutter
	cfg    config.S3Config
}

func NewS3Exporter(ctx context.Context, cfg config.S3Config) (*S3Exporter, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Exporter{client: client, cfg: cfg}, nil
}

func (e *S3Exporter) Name() string {
	return "s3"
}

type runExport struct {
	Run    *models.ScrapeRun  `json:"run"`
	Houses []models.HouseInfo `json:"houses"`
}

func (e *S3Exporter) WriteHouses(ctx context.Context, run *models.ScrapeRun, houses []models.HouseInfo) error {
	if houses == nil {
		houses = []models.HouseInfo{}
	}
	body, err := json.Marshal(runExport{Run: run, Houses: houses})
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}

	key := ExportKey(run)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// ExportKey is runs/{site}/{yyyy-mm-dd}/{run id}.json
func ExportKey(run *models.ScrapeRun) string {
	return fmt.Sprintf("runs/%s/%s/%d.json", run.SiteID, run.StartedAt.UTC().Format("2006-01-02"), run.ID)
}

// PublicURL returns the public URL for an S3 key
func (e *S3Exporter) PublicURL(key string) string {
	if e.cfg.Endpoint != "" && strings.Contains(e.cfg.Endpoint, "digitaloceanspaces.com") {
		// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
		host := strings.TrimPrefix(e.cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", e.cfg.Bucket, host, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", e.cfg.Bucket, e.cfg.Region, key)
}
