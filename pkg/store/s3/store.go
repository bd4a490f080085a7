package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/store/filesystem"
	"github.com/dylandoyle11/RedashETL/pkg/store/tabular"
	"github.com/rs/zerolog"
)

var templateExtensions = []string{".csv", ".xlsx"}

// ObjectAPI is the subset of *s3.Client the store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Settings struct {
	Bucket string
	Prefix string
}

// Store keeps templates or generated reports under a bucket prefix.
type Store struct {
	client ObjectAPI
	bucket string
	prefix string
}

func NewStore(client ObjectAPI, settings Settings) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	if settings.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{
		client: client,
		bucket: settings.Bucket,
		prefix: settings.Prefix,
	}, nil
}

// NewStoreFromConfig builds a store on top of a regular S3 client.
func NewStoreFromConfig(cfg awssdk.Config, settings Settings) (*Store, error) {
	return NewStore(awss3.NewFromConfig(cfg), settings)
}

func (s *Store) LoadTemplate(ctx context.Context, cadence domain.Cadence) (*domain.Table, error) {
	for _, ext := range templateExtensions {
		key := path.Join(s.prefix, filesystem.TemplateName(cadence)+ext)

		out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
			Bucket: awssdk.String(s.bucket),
			Key:    awssdk.String(key),
		})
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
		}

		table, err := tabular.Read(out.Body, tabular.FormatFromPath(key))
		_ = out.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
		}
		zerolog.Ctx(ctx).Debug().Str("key", key).Int("rows", table.Len()).Msg("template loaded")
		return table, nil
	}
	return nil, fmt.Errorf("no %s template in s3://%s/%s", cadence.Title(), s.bucket, s.prefix)
}

func (s *Store) SaveTable(ctx context.Context, runID, name string, table *domain.Table) (string, error) {
	key := path.Join(s.prefix, runID, path.Base(name))
	format := tabular.FormatFromPath(key)

	var buf bytes.Buffer
	if err := tabular.Write(&buf, table, format); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      awssdk.String(s.bucket),
		Key:         awssdk.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: awssdk.String(contentType(format)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	zerolog.Ctx(ctx).Debug().Str("location", location).Int("rows", table.Len()).Msg("table saved")
	return location, nil
}

func contentType(format tabular.Format) string {
	if format == tabular.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
