// Package s3 implementa media.Store con PUTs presignados: el cliente sube
// la foto o el QR directo al bucket y la API solo guarda la URL pública.
package s3

import (
	"context"
	"fmt"
	"time"

	"paws-and-places/internal/ports/media"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadTTL = 15 * time.Minute

type Store struct {
	presigner  *s3.PresignClient
	bucket     string
	region     string
	publicBase string // opcional: CDN delante del bucket
}

func NewStore(ctx context.Context, bucket, region, publicBase string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return &Store{
		presigner:  s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:     bucket,
		region:     region,
		publicBase: publicBase,
	}, nil
}

func (s *Store) PresignUpload(ctx context.Context, kind media.Kind, contentType string) (media.UploadTicket, error) {
	ext, ok := imageExt(contentType)
	if !ok {
		return media.UploadTicket{}, fmt.Errorf("unsupported content type %q", contentType)
	}

	prefix := "photos"
	if kind == media.KindQRCode {
		prefix = "qr-codes"
	}
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) { o.Expires = uploadTTL })
	if err != nil {
		return media.UploadTicket{}, fmt.Errorf("presign put: %w", err)
	}

	return media.UploadTicket{
		UploadURL: req.URL,
		PublicURL: s.publicURL(key),
		ExpiresIn: uploadTTL,
	}, nil
}

func (s *Store) publicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func imageExt(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}
