package minio

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/user/pageview-ranker/internal/repository"
)

// ArtifactRepoImpl mirrors each hour's output files into an object storage bucket.
type ArtifactRepoImpl struct {
	client *minio.Client
	bucket string
}

// NewArtifactRepo connects to endpoint and makes sure bucket exists.
func NewArtifactRepo(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool) (*ArtifactRepoImpl, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &ArtifactRepoImpl{client: client, bucket: bucket}, nil
}

func (r *ArtifactRepoImpl) Name() string { return "minio" }

// Publish uploads every output file under <hour key>/<file name>.
func (r *ArtifactRepoImpl) Publish(ctx context.Context, result *repository.HourResult) error {
	for _, file := range result.Files {
		key := objectKey(result, file)
		_, err := r.client.FPutObject(ctx, r.bucket, key, file, minio.PutObjectOptions{
			ContentType: contentType(file),
			UserMetadata: map[string]string{
				"run-id": result.RunID,
				"hour":   result.Window.Key(),
			},
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}
	return nil
}

func objectKey(result *repository.HourResult, file string) string {
	return path.Join(result.Window.Key(), filepath.Base(file))
}

func contentType(file string) string {
	if filepath.Ext(file) == ".csv" {
		return "text/csv"
	}
	return "application/octet-stream"
}
