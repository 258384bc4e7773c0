package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// AudioStorage stores card pronunciation audio in a Spaces bucket and
// hands back public URLs.
type AudioStorage interface {
	UploadCardAudio(ctx context.Context, userID, cardID string, data []byte, contentType string) (string, error)
	DeleteCardAudio(ctx context.Context, userID, cardID string) error
}

type SpacesService struct {
	client    *s3.Client
	bucket    string
	region    string
	AudioRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, audioRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load Spaces config: %w", err)
	}

	return &SpacesService{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		AudioRoot: strings.TrimPrefix(audioRoot, "/"),
	}, nil
}

func (s *SpacesService) audioKey(userID, cardID string) string {
	return fmt.Sprintf("%s/%s/%s.mp3", s.AudioRoot, userID, cardID)
}

// UploadCardAudio stores the audio publicly readable and returns its URL.
func (s *SpacesService) UploadCardAudio(ctx context.Context, userID, cardID string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	key := s.audioKey(userID, cardID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}

	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, key), nil
}

func (s *SpacesService) DeleteCardAudio(ctx context.Context, userID, cardID string) error {
	key := s.audioKey(userID, cardID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete audio: %w", err)
	}
	return nil
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
