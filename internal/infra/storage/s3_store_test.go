package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectPutter
type MockObjectPutter struct {
	mock.Mock
}

func (m *MockObjectPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3StorePut(t *testing.T) {
	client := new(MockObjectPutter)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "docs" &&
			aws.ToString(in.Key) == "orders/1/a.pdf" &&
			aws.ToString(in.ContentType) == "application/pdf" &&
			aws.ToInt64(in.ContentLength) == 8 &&
			string(body) == "%PDF-1.4"
	})).Return(&s3.PutObjectOutput{}, nil)

	store := NewS3StoreWithClient(client, "docs")
	location, err := store.Put(context.Background(), "orders/1/a.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))

	require.NoError(t, err)
	assert.Equal(t, "s3://docs/orders/1/a.pdf", location)
	client.AssertExpectations(t)
}

func TestS3StorePutRejectsOversized(t *testing.T) {
	client := new(MockObjectPutter)
	store := NewS3StoreWithClient(client, "docs")

	_, err := store.Put(context.Background(), "k", "image/png", strings.NewReader(strings.Repeat("x", MaxDocumentSize+1)))

	assert.ErrorIs(t, err, ErrDocumentTooLarge)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestS3StorePutError(t *testing.T) {
	client := new(MockObjectPutter)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied"))

	_, err := NewS3StoreWithClient(client, "docs").Put(context.Background(), "k", "image/png", strings.NewReader("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
