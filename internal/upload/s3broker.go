package upload

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultPresignExpiry is how long an S3 upload URL stays valid.
const DefaultPresignExpiry = 15 * time.Minute

type s3Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type s3ACL interface {
	PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
}

// S3Config configures an S3Broker.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for MinIO or LocalStack
	PublicBaseURL string // optional, defaults to the virtual-hosted bucket URL
}

// S3Broker presigns uploads and publishes objects directly against S3.
type S3Broker struct {
	presigner s3Presigner
	acl       s3ACL
	bucket    string
	publicURL string
	expiry    time.Duration
}

// NewS3Broker loads the default AWS credential chain and creates a broker.
func NewS3Broker(ctx context.Context, cfg S3Config) (*S3Broker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.PublicBaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return newS3Broker(s3.NewPresignClient(client), client, cfg.Bucket, base), nil
}

func newS3Broker(p s3Presigner, acl s3ACL, bucket, publicURL string) *S3Broker {
	return &S3Broker{
		presigner: p,
		acl:       acl,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		expiry:    DefaultPresignExpiry,
	}
}

func objectKey(folder, filename string) string {
	if folder == "" {
		return filename
	}
	return path.Join(folder, filename)
}

func (b *S3Broker) Presign(ctx context.Context, filenames []string, folder string) ([]Slot, error) {
	slots := make([]Slot, 0, len(filenames))
	for _, name := range filenames {
		key := objectKey(folder, name)
		req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(b.expiry))
		if err != nil {
			return nil, fmt.Errorf("s3 presign %s: %w", key, err)
		}
		slots = append(slots, Slot{
			Filename:  name,
			Key:       key,
			UploadURL: req.URL,
			PublicURL: b.publicURL + "/" + (&url.URL{Path: key}).EscapedPath(),
		})
	}
	return slots, nil
}

// Publish sets a public-read ACL on every key. Per-key failures are reported
// in the result rather than as an error.
func (b *S3Broker) Publish(ctx context.Context, keys []string) (*PublishResult, error) {
	res := &PublishResult{Total: len(keys)}
	for _, key := range keys {
		_, err := b.acl.PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
			ACL:    types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			res.Failed = append(res.Failed, KeyResult{Key: key, Error: err.Error()})
			continue
		}
		res.Successful = append(res.Successful, KeyResult{Key: key, Success: true})
	}
	res.SuccessCount = len(res.Successful)
	res.FailedCount = len(res.Failed)
	res.Success = res.FailedCount == 0
	return res, nil
}
