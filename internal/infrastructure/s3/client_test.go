package s3infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/otp-file-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}
func (m *mockAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}
func (m *mockAPI) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockAPI) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func headKey(key string) interface{} {
	return mock.MatchedBy(func(in *s3.HeadObjectInput) bool { return aws.ToString(in.Key) == key })
}

func TestUpload(t *testing.T) {
	api := &mockAPI{}
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "userfiles" &&
			aws.ToString(in.Key) == "a@x.com/20240101000000_r.txt" &&
			aws.ToInt64(in.ContentLength) == 5
	})).Return(&s3.PutObjectOutput{}, nil)

	err := NewStore(api, "userfiles").Upload(context.Background(), "a@x.com/20240101000000_r.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestList_SkipsFoldersAndPaginates(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("a@x.com/"), Size: aws.Int64(0)},
			{Key: aws.String("a@x.com/one.txt"), Size: aws.Int64(3), ETag: aws.String(`"abc"`), LastModified: &mod},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("a@x.com/two.txt"), Size: aws.Int64(7)}},
	}, nil).Once()
	api.On("HeadObject", mock.Anything, headKey("a@x.com/one.txt")).Return(&s3.HeadObjectOutput{ContentType: aws.String("text/plain")}, nil)
	api.On("HeadObject", mock.Anything, headKey("a@x.com/two.txt")).Return(&s3.HeadObjectOutput{}, nil)

	files, err := NewStore(api, "userfiles").List(context.Background(), "a@x.com/")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "one.txt", files[0].Name)
	assert.Equal(t, "abc", files[0].ETag)
	assert.Equal(t, "text/plain", files[0].ContentType)
	assert.Equal(t, mod, files[0].CreatedAt)
	assert.Equal(t, mod, files[0].UpdatedAt)
	assert.Equal(t, "two.txt", files[1].Name)
	assert.Equal(t, "application/octet-stream", files[1].ContentType)
	api.AssertNotCalled(t, "HeadObject", mock.Anything, headKey("a@x.com/"))
}

func TestList_DropsObjectsDeletedMidListing(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("a@x.com/gone.txt")}, {Key: aws.String("a@x.com/kept.txt")}},
	}, nil)
	api.On("HeadObject", mock.Anything, headKey("a@x.com/gone.txt")).Return(nil, &types.NotFound{})
	api.On("HeadObject", mock.Anything, headKey("a@x.com/kept.txt")).Return(&s3.HeadObjectOutput{ContentType: aws.String("image/png")}, nil)

	files, err := NewStore(api, "userfiles").List(context.Background(), "a@x.com/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "kept.txt", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)
}

func TestList_HeadFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("a@x.com/a.txt")}},
	}, nil)
	api.On("HeadObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := NewStore(api, "userfiles").List(context.Background(), "a@x.com/")
	assert.ErrorContains(t, err, "s3 head object")
}

func TestList_EmptyFolder(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{}, nil)

	files, err := NewStore(api, "userfiles").List(context.Background(), "a@x.com/")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestDownload_Missing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})

	_, err := NewStore(api, "userfiles").Download(context.Background(), "a@x.com/none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownload_Stream(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader("data")),
		ContentLength: aws.Int64(4),
	}, nil)

	obj, err := NewStore(api, "userfiles").Download(context.Background(), "a@x.com/f")
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "application/octet-stream", obj.ContentType)
	b, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "data", string(b))
}

func TestDownload_Outage(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := NewStore(api, "userfiles").Download(context.Background(), "a@x.com/f")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
