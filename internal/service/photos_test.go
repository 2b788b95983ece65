package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleetfix/internal/models"
	"github.com/ukydev/fleetfix/internal/upload"
)

func newTestPhotoService() (*PhotoService, *MockPhotoAPI, *MockUploader) {
	photos := new(MockPhotoAPI)
	uploader := new(MockUploader)
	s := NewPhotoService(photos, uploader)
	s.now = fixedClock
	return s, photos, uploader
}

func TestPhotoService_SubmitCreates(t *testing.T) {
	s, photos, uploader := newTestPhotoService()
	ctx := context.Background()

	photos.On("Get", mock.Anything, "70-1234").Return(nil, nil)
	ms := testNow.UnixMilli()
	uploader.On("RunBatch", mock.Anything, mock.MatchedBy(func(files []upload.File) bool {
		return len(files) == 2 &&
			files[0].Filename == fmt.Sprintf("70-1234_left_%d.jpg", ms) &&
			files[1].Filename == fmt.Sprintf("70-1234_back_%d.jpg", ms)
	}), upload.FolderTruckPhotos).Return([]string{"https://cdn/l.jpg", "https://cdn/b.jpg"}, nil)
	photos.On("Create", mock.Anything, models.TruckImageSubmissionCreate{
		Truckplate: "70-1234",
		ImageURLs: &models.TruckImageURLs{
			Left: models.StringPtr("https://cdn/l.jpg"),
			Back: models.StringPtr("https://cdn/b.jpg"),
		},
		Approve: false,
	}).Return(&models.TruckImageSubmission{Truckplate: "70-1234"}, nil)

	got, err := s.Submit(ctx, "70-1234", map[models.PhotoSide]*upload.File{
		models.SideBack: jpeg(),
		models.SideLeft: jpeg(),
	})
	require.NoError(t, err)
	assert.Equal(t, "70-1234", got.Truckplate)
	photos.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestPhotoService_SubmitUpdatesKeepingApproval(t *testing.T) {
	s, photos, uploader := newTestPhotoService()
	ctx := context.Background()

	photos.On("Get", mock.Anything, "70-1234").Return(&models.TruckImageSubmission{
		Truckplate: "70-1234",
		Approve:    true,
		ImageURLs: &models.TruckImageURLs{
			Left:  models.StringPtr("https://cdn/old-l.jpg"),
			Front: models.StringPtr("https://cdn/old-f.jpg"),
		},
	}, nil)
	uploader.On("RunBatch", mock.Anything, mock.Anything, upload.FolderTruckPhotos).Return([]string{"https://cdn/new-l.jpg"}, nil)
	photos.On("Update", mock.Anything, "70-1234", models.TruckImageSubmissionUpdate{
		ImageURLs: &models.TruckImageURLs{
			Left:  models.StringPtr("https://cdn/new-l.jpg"),
			Front: models.StringPtr("https://cdn/old-f.jpg"),
		},
		Approve: true,
	}).Return(&models.TruckImageSubmission{Truckplate: "70-1234", Approve: true}, nil)

	got, err := s.Submit(ctx, "70-1234", map[models.PhotoSide]*upload.File{models.SideLeft: jpeg()})
	require.NoError(t, err)
	assert.True(t, got.Approve)
}

func TestPhotoService_SubmitUploadFailure(t *testing.T) {
	s, photos, uploader := newTestPhotoService()

	photos.On("Get", mock.Anything, "70-1234").Return(nil, nil)
	uploader.On("RunBatch", mock.Anything, mock.Anything, upload.FolderTruckPhotos).
		Return([]string{"", "https://cdn/r.jpg"}, &upload.BatchError{Errs: []error{errors.New("presign"), nil}})

	_, err := s.Submit(context.Background(), "70-1234", map[models.PhotoSide]*upload.File{
		models.SideLeft:  jpeg(),
		models.SideRight: jpeg(),
	})
	require.Error(t, err)
	photos.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPhotoService_SubmitValidation(t *testing.T) {
	s, _, _ := newTestPhotoService()
	ctx := context.Background()

	_, err := s.Submit(ctx, " ", map[models.PhotoSide]*upload.File{models.SideLeft: jpeg()})
	assert.ErrorIs(t, err, ErrTruckRequired)

	_, err = s.Submit(ctx, "70-1234", map[models.PhotoSide]*upload.File{"roof": jpeg()})
	assert.ErrorIs(t, err, ErrInvalidSide)

	_, err = s.Submit(ctx, "70-1234", map[models.PhotoSide]*upload.File{models.SideLeft: nil})
	assert.ErrorIs(t, err, ErrNoPhotos)
}

func TestPhotoService_Get(t *testing.T) {
	s, photos, _ := newTestPhotoService()

	photos.On("Get", mock.Anything, "70-1234").Return(nil, nil)
	got, err := s.Get(context.Background(), " 70-1234 ")
	require.NoError(t, err)
	assert.Nil(t, got)
}
