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

func newTestInspectionService() (*InspectionService, *MockInspectionAPI, *MockUploader) {
	inspections := new(MockInspectionAPI)
	uploader := new(MockUploader)
	s := NewInspectionService(inspections, uploader)
	s.now = fixedClock
	return s, inspections, uploader
}

func intPtr(i int) *int { return &i }

func TestInspectionService_Submit(t *testing.T) {
	s, inspections, uploader := newTestInspectionService()
	ctx := context.Background()

	inspections.On("CreateMileage", mock.Anything, mock.Anything, models.MileageInput{TruckPlate: "70-1234", Mileage: 120500}).
		Return(&models.Mileage{ID: "m1"}, nil)
	inspections.On("CreateRecord", mock.Anything, mock.Anything, models.InspectionRecordInput{
		InspectorName:  "team1",
		TruckPlate:     "70-1234",
		InspectionDate: "2025-03-15",
	}).Return(&models.InspectionRecord{ID: "r1"}, nil)
	uploader.On("Run", mock.Anything, mock.MatchedBy(func(f upload.File) bool {
		return f.Filename == fmt.Sprintf("70-1234_7_%d.jpg", testNow.UnixMilli())
	}), upload.FolderInspectionFailedItems).Return("https://cdn/7.jpg", nil)
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, models.FailedItemInput{
		Truckplate:  "70-1234",
		IDVehicle:   "T-09",
		SubVehicle:  "เบรก",
		Description: "ผ้าเบรก",
		ImageURL:    "https://cdn/7.jpg",
		Status:      models.FailedItemPending,
		FailType:    models.FailTypeNeedsRepair,
		UserCreate:  "team1",
		Remark:      "บาง",
	}).Return(&models.FailedItem{ID: "f1"}, nil)

	res, err := s.Submit(ctx, testActor("team1"), InspectionSubmission{
		Truckplate: "70-1234",
		TruckNum:   "T-09",
		Mileage:    intPtr(120500),
		Items: []InspectionItem{
			{ID: "1", Category: "ไฟ", Name: "ไฟหน้า", Status: models.ItemPass},
			{ID: "7", Category: "เบรก", Name: "ผ้าเบรก", Status: models.ItemNeedsRepair, Notes: " บาง ", Image: jpeg()},
			{ID: "9", Category: "ยาง", Name: "ยางอะไหล่", Status: models.ItemNotChecked},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", res.Record.ID)
	assert.Equal(t, models.ItemConditional, res.OverallStatus)
	assert.Equal(t, 1, res.FailedItems)
	inspections.AssertExpectations(t)
}

func TestInspectionService_SubmitWithoutMileage(t *testing.T) {
	s, inspections, _ := newTestInspectionService()

	inspections.On("CreateRecord", mock.Anything, mock.Anything, mock.Anything).Return(&models.InspectionRecord{ID: "r1"}, nil)

	res, err := s.Submit(context.Background(), testActor("team1"), InspectionSubmission{
		Truckplate: "70-1234",
		Items:      []InspectionItem{{ID: "1", Status: models.ItemPass}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ItemPass, res.OverallStatus)
	inspections.AssertNotCalled(t, "CreateMileage", mock.Anything, mock.Anything, mock.Anything)
}

func TestInspectionService_SubmitRecordFailureIsFatal(t *testing.T) {
	s, inspections, _ := newTestInspectionService()

	inspections.On("CreateRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("HTTP error! status: 500"))

	_, err := s.Submit(context.Background(), testActor("team1"), InspectionSubmission{
		Truckplate: "70-1234",
		Items:      []InspectionItem{{ID: "1", Status: models.ItemFail}},
	})
	require.Error(t, err)
	inspections.AssertNotCalled(t, "CreateFailedItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestInspectionService_SubmitToleratesFailedItemProblems(t *testing.T) {
	s, inspections, uploader := newTestInspectionService()

	inspections.On("CreateRecord", mock.Anything, mock.Anything, mock.Anything).Return(&models.InspectionRecord{ID: "r1"}, nil)
	uploader.On("Run", mock.Anything, mock.Anything, upload.FolderInspectionFailedItems).Return("", errors.New("presign failed"))
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, mock.MatchedBy(func(in models.FailedItemInput) bool {
		return in.SubVehicle == "ไฟ" && in.ImageURL == ""
	})).Return(&models.FailedItem{ID: "f1"}, nil)
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, mock.MatchedBy(func(in models.FailedItemInput) bool {
		return in.SubVehicle == "เบรก"
	})).Return(nil, errors.New("HTTP error! status: 500"))

	res, err := s.Submit(context.Background(), testActor("team1"), InspectionSubmission{
		Truckplate: "70-1234",
		Items: []InspectionItem{
			{ID: "1", Category: "ไฟ", Name: "ไฟหน้า", Status: models.ItemFail, Image: jpeg()},
			{ID: "2", Category: "เบรก", Name: "ผ้าเบรก", Status: models.ItemNeedsRepair},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ItemFail, res.OverallStatus)
	assert.Equal(t, 1, res.FailedItems)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ผ้าเบรก")
}

func TestInspectionService_SubmitValidation(t *testing.T) {
	s, _, _ := newTestInspectionService()
	ctx := context.Background()

	_, err := s.Submit(ctx, testActor("team1"), InspectionSubmission{})
	assert.ErrorIs(t, err, ErrTruckRequired)

	_, err = s.Submit(ctx, testActor("team1"), InspectionSubmission{Truckplate: "70-1234", Mileage: intPtr(-5)})
	assert.ErrorIs(t, err, ErrInvalidMileage)
}

func TestInspectionService_Records(t *testing.T) {
	s, inspections, _ := newTestInspectionService()

	inspections.On("Records", mock.Anything, mock.Anything, "team1", "", 100).
		Return(&models.InspectionRecords{Total: 2}, nil)
	inspections.On("SearchTrucks", mock.Anything, mock.Anything, "70", 20).
		Return([]models.Truck{{Truckplate: "70-1234"}})

	recs, err := s.Records(context.Background(), testActor("team1"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, recs.Total)

	trucks := s.SearchTrucks(context.Background(), testActor("team1"), " 70 ")
	assert.Len(t, trucks, 1)
}
