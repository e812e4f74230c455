// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Archiver writes settlement audit records to an R2 (S3 API) bucket
// so a settlement can be replayed for audit without touching the
// database. Uploads are best effort and always happen after commit.
type R2Archiver struct {
	client *s3.Client
	bucket string
}

// NewR2Archiver builds an archiver from R2_* environment variables.
// Returns nil (no error) when R2 is not configured — archiving is
// optional.
func NewR2Archiver() (*R2Archiver, error) {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	bucket := os.Getenv("R2_BUCKET_NAME")
	if accountID == "" || bucket == "" {
		return nil, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	return &R2Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// ArchiveSettlement uploads the settlement summary as JSON under
// settlements/room_<id>.json.
func (a *R2Archiver) ArchiveSettlement(roomID uint, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement payload: %w", err)
	}

	key := fmt.Sprintf("settlements/room_%d.json", roomID)
	_, err = a.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload settlement record: %w", err)
	}
	return nil
}
