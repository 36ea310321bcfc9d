package store

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads encoded artifacts. Team files land under
// <prefix>/<season>/teams/ and the combined file under
// <prefix>/<season>/combined/ so a table can sit on the latter alone.
type S3Sink struct {
	Client S3API
	Bucket string
	Prefix string
	Season string
	Enc    Encoder
}

func (u *S3Sink) Key(a Artifact) string {
	dir := "teams"
	if a.Combined {
		dir = "combined"
	}
	return path.Join(u.Prefix, u.Season, dir, a.Name+"."+u.Enc.Ext())
}

// Location is the s3:// URI of the combined artifact folder.
func (u *S3Sink) Location() string {
	return "s3://" + u.Bucket + "/" + path.Join(u.Prefix, u.Season, "combined") + "/"
}

func (u *S3Sink) Put(ctx context.Context, a Artifact) error {
	var buf bytes.Buffer
	if err := u.Enc.Encode(&buf, a.Records); err != nil {
		return errors.Wrapf(err, "encode %s", a.Name)
	}
	key := u.Key(a)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(u.Enc.ContentType()),
	})
	return errors.Wrapf(err, "put s3://%s/%s", u.Bucket, key)
}
