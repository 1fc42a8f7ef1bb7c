package s3infra

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parcel-notify/internal/domain"
)

type mockPutter struct{ mock.Mock }

func (m *mockPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestArchive_WritesJSONLines(t *testing.T) {
	putter := new(mockPutter)
	s := &Store{client: putter, bucket: "ledger"}
	cutoff := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	key := domain.ApartmentKey("A-1-1")

	var body string
	var objectKey string
	putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "ledger"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		objectKey = aws.ToString(in.Key)
		b, _ := io.ReadAll(in.Body)
		body = string(b)
	}).Return(&s3.PutObjectOutput{}, nil)

	recs := []domain.NotificationRecord{
		{ID: "1", ApartmentKey: &key, Status: domain.NotificationOK, SentAt: cutoff.Add(-time.Hour)},
		{ID: "2", Status: domain.NotificationNoBinding, SentAt: cutoff.Add(-2 * time.Hour)},
	}
	url, err := s.Archive(context.Background(), recs, cutoff)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(objectKey, "ledger-archive/2026-04-01/"))
	assert.True(t, strings.HasSuffix(objectKey, ".jsonl"))
	assert.Equal(t, "s3://ledger/"+objectKey, url)

	sc := bufio.NewScanner(strings.NewReader(body))
	var lines []domain.NotificationRecord
	for sc.Scan() {
		var rec domain.NotificationRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ID)
	assert.Nil(t, lines[1].ApartmentKey)
}

func TestArchive_PutFailure(t *testing.T) {
	putter := new(mockPutter)
	s := &Store{client: putter, bucket: "ledger"}
	putter.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, errors.New("access denied"))

	_, err := s.Archive(context.Background(), nil, time.Now())
	assert.ErrorContains(t, err, "access denied")
}
