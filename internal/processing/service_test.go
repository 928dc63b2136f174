package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/export"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
)

// MockSessionRepository implements repository.SessionRepository for testing
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*session.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) PurgeExpired(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	args := m.Called(ctx, olderThan)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockImageStore implements storage.ImageStore for testing
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, key string, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockImageStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func testRenderer() *export.Renderer {
	return &export.Renderer{Geometry: chart.Default(), Scale: 0.5, Supersample: 1}
}

func readySession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(chart.Default())
	_, err := s.UpdatePatient(map[string]string{
		audiogram.FieldName:      "John Doe",
		audiogram.FieldExamDate:  "01/02/2020",
		audiogram.FieldBirthDate: "03/04/1990",
	})
	require.NoError(t, err)
	return s
}

const wantFilename = "audio_01-02-2020_John-Doe_03-04-1990.png"

func TestExport(t *testing.T) {
	tests := []struct {
		name      string
		archive   bool
		mockSetup func(*MockImageStore, uuid.UUID)
		wantURL   string
	}{
		{
			name:    "without archive",
			archive: false,
		},
		{
			name:    "archived",
			archive: true,
			mockSetup: func(images *MockImageStore, id uuid.UUID) {
				key := fmt.Sprintf("exports/%s/%s", id, wantFilename)
				images.On("Upload", mock.Anything, key, "image/png", mock.AnythingOfType("[]uint8")).Return(nil)
				images.On("GenerateDownloadURL", mock.Anything, key).Return("http://minio/exports/x.png", nil)
			},
			wantURL: "http://minio/exports/x.png",
		},
		{
			name:    "archive failure still exports",
			archive: true,
			mockSetup: func(images *MockImageStore, id uuid.UUID) {
				images.On("Upload", mock.Anything, mock.Anything, "image/png", mock.Anything).Return(errors.New("bucket gone"))
			},
		},
		{
			name:    "download url failure still exports",
			archive: true,
			mockSetup: func(images *MockImageStore, id uuid.UUID) {
				images.On("Upload", mock.Anything, mock.Anything, "image/png", mock.Anything).Return(nil)
				images.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("", errors.New("presign failed"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := readySession(t)
			repo := new(MockSessionRepository)
			repo.On("Get", mock.Anything, sess.ID).Return(sess, nil)

			images := new(MockImageStore)
			if tt.mockSetup != nil {
				tt.mockSetup(images, sess.ID)
			}

			svc := NewExportService(repo, nil, testRenderer(), export.DefaultPrefix, 0)
			if tt.archive {
				svc = NewExportService(repo, images, testRenderer(), export.DefaultPrefix, 0)
			}

			result, err := svc.Export(context.Background(), sess.ID)
			require.NoError(t, err)
			assert.Equal(t, wantFilename, result.Filename)
			assert.Equal(t, tt.wantURL, result.DownloadURL)

			img, err := png.Decode(bytes.NewReader(result.Image))
			require.NoError(t, err)
			w, h := testRenderer().Size()
			assert.Equal(t, w, img.Bounds().Dx())
			assert.Equal(t, h, img.Bounds().Dy())

			repo.AssertExpectations(t)
			images.AssertExpectations(t)
		})
	}
}

func TestExport_IncompletePatient(t *testing.T) {
	sess := session.New(chart.Default())
	repo := new(MockSessionRepository)
	repo.On("Get", mock.Anything, sess.ID).Return(sess, nil)
	images := new(MockImageStore)

	svc := NewExportService(repo, images, testRenderer(), export.DefaultPrefix, 0)
	result, err := svc.Export(context.Background(), sess.ID)

	assert.Nil(t, result)
	var verr *export.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Messages, 3)
	images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExport_SessionNotFound(t *testing.T) {
	id := uuid.New()
	repo := new(MockSessionRepository)
	repo.On("Get", mock.Anything, id).Return(nil, fmt.Errorf("%w: %s", repository.ErrSessionNotFound, id))

	svc := NewExportService(repo, nil, testRenderer(), export.DefaultPrefix, 0)
	_, err := svc.Export(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestExport_Prefix(t *testing.T) {
	sess := readySession(t)
	repo := new(MockSessionRepository)
	repo.On("Get", mock.Anything, sess.ID).Return(sess, nil)

	svc := NewExportService(repo, nil, testRenderer(), export.AudiogramPrefix, 0)
	result, err := svc.Export(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Filename, "audiogram_"))
}

func TestExport_WaitsForSlot(t *testing.T) {
	sess := readySession(t)
	repo := new(MockSessionRepository)
	repo.On("Get", mock.Anything, sess.ID).Return(sess, nil)

	svc := NewExportService(repo, nil, testRenderer(), export.DefaultPrefix, 1)
	// occupy the only slot
	svc.(*exportService).slots <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Export(ctx, sess.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	<-svc.(*exportService).slots
	result, err := svc.Export(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, wantFilename, result.Filename)
	assert.Empty(t, svc.(*exportService).slots, "slot released after export")
}

func TestDiscard(t *testing.T) {
	sess := readySession(t)
	repo := new(MockSessionRepository)
	repo.On("Get", mock.Anything, sess.ID).Return(sess, nil)

	key := fmt.Sprintf("exports/%s/%s", sess.ID, wantFilename)
	images := new(MockImageStore)
	images.On("Upload", mock.Anything, key, "image/png", mock.Anything).Return(nil)
	images.On("GenerateDownloadURL", mock.Anything, key).Return("http://minio/x.png", nil)

	svc := NewExportService(repo, images, testRenderer(), export.DefaultPrefix, 0)
	ctx := context.Background()

	// the same filename twice is one archived object
	_, err := svc.Export(ctx, sess.ID)
	require.NoError(t, err)
	_, err = svc.Export(ctx, sess.ID)
	require.NoError(t, err)

	images.On("DeleteFile", mock.Anything, key).Return(errors.New("unavailable")).Once()
	n, err := svc.Discard(ctx, sess.ID)
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	// the failed key is retried
	images.On("DeleteFile", mock.Anything, key).Return(nil).Once()
	n, err = svc.Discard(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.Discard(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	images.AssertNumberOfCalls(t, "DeleteFile", 2)
}

func TestDiscard_WithoutArchive(t *testing.T) {
	svc := NewExportService(new(MockSessionRepository), nil, testRenderer(), export.DefaultPrefix, 0)
	n, err := svc.Discard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
