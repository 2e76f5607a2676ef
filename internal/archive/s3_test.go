package archive

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("tenant-1", "Voice.M4A", at)
	assert.Regexp(t, regexp.MustCompile(`^audio/tenant-1/2025/03/[0-9a-f-]{36}\.m4a$`), key)

	assert.True(t, strings.HasPrefix(ObjectKey("", "x", at), "audio/global/2025/03/"))
	assert.True(t, strings.HasSuffix(ObjectKey("t", "noext", at), ".bin"))
}

func TestS3Archive_Store(t *testing.T) {
	fake := &fakeS3{}
	a := newS3Archive(fake, "care-audio", zap.NewNop())
	a.now = func() time.Time { return time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC) }

	key, err := a.Store(context.Background(), "t1", "a.mp3", "audio/mpeg", strings.NewReader("AUDIO"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "audio/t1/2025/11/"))
	assert.Equal(t, "care-audio", aws.ToString(fake.in.Bucket))
	assert.Equal(t, key, aws.ToString(fake.in.Key))
	assert.Equal(t, "audio/mpeg", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "AUDIO", fake.body)
}

func TestS3Archive_StoreError(t *testing.T) {
	a := newS3Archive(&fakeS3{err: errors.New("denied")}, "b", zap.NewNop())
	_, err := a.Store(context.Background(), "t1", "a.mp3", "", strings.NewReader("x"))
	require.Error(t, err)
}
