package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/celine-eu/rec-registry/internal/util"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

// ArchiveBundle stores one imported bundle document under a fresh key, so
// every accepted import stays retrievable for audit. Returns the object key.
func ArchiveBundle(ctx context.Context, client *s3.Client, communityKey string, doc []byte) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("communities/%s/bundles/%s.yaml", communityKey, id)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/yaml"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive bundle: %w", err)
	}
	return key, nil
}

// GetArchivedBundle fetches one archived bundle document by object key.
func GetArchivedBundle(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get archived bundle: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read archived bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// ListArchivedBundles lists the archive keys of one community, oldest first
// by key order.
func ListArchivedBundles(ctx context.Context, client *s3.Client, communityKey string) ([]string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	prefix := fmt.Sprintf("communities/%s/bundles/", communityKey)

	var keys []string
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list bundle archive: %w", err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	return keys, nil
}
