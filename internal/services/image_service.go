// internal/services/image_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/config"
)

// ImageService turns the image reference frozen into a cart line into a URL the UI can load.
type ImageService struct {
	s3Client *s3.S3
	config   config.AWSConfig
}

func NewImageService(cfg config.AWSConfig) (*ImageService, error) {
	if cfg.AccessKeyID == "" || cfg.S3Bucket == "" {
		// Without credentials references resolve to public URLs only
		return &ImageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &ImageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// URL resolves ref. Absolute URLs pass through; bucket keys go through CloudFront when
// configured, else a presigned S3 URL, else the public bucket URL.
func (s *ImageService) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isAbsoluteURL(ref) {
		return ref
	}

	key := strings.TrimPrefix(ref, "/")
	if s.config.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.CloudFrontURL, "/"), key)
	}

	if s.s3Client != nil {
		url, err := s.presign(key, s.config.PresignTTL)
		if err == nil {
			return url
		}
		logrus.WithError(err).WithField("key", key).Warn("Failed to presign image URL")
	}

	if s.config.S3Bucket == "" {
		return ref
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.Region, key)
}

func (s *ImageService) presign(key string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:")
}
