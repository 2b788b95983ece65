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

func newTestTireService() (*TireService, *MockTireAPI, *MockInspectionAPI, *MockUploader) {
	tires := new(MockTireAPI)
	inspections := new(MockInspectionAPI)
	uploader := new(MockUploader)
	s := NewTireService(tires, inspections, uploader)
	s.now = fixedClock
	return s, tires, inspections, uploader
}

func mountedTires() *models.TruckTires {
	return &models.TruckTires{
		Info: models.TireInfo{Truckplate: "70-1234"},
		Data: []models.Tire{
			{TirePosition: "FL", SerialNo: models.StringPtr("S1")},
			{TirePosition: "FR", SerialNo: models.StringPtr("S2")},
			{TirePosition: "SPARE"},
		},
	}
}

func TestTireService_Submit(t *testing.T) {
	s, tires, inspections, uploader := newTestTireService()
	ctx := context.Background()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", models.TireTreadUpdate{TirePosition: "FL", LastMM: 8.5, SerialNo: "S1"}).
		Return(&models.TireMileage{TirePosition: "FL"}, nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", models.TireTreadUpdate{TirePosition: "FR", LastMM: 3, SerialNo: "S2"}).
		Return(&models.TireMileage{TirePosition: "FR"}, nil)
	uploader.On("Run", mock.Anything, mock.MatchedBy(func(f upload.File) bool {
		return f.Filename == fmt.Sprintf("70-1234_tire_S2_%d.jpg", testNow.UnixMilli())
	}), upload.FolderInspectionFailedItems).Return("", errors.New("publish failed"))
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, models.FailedItemInput{
		Truckplate:  "70-1234",
		IDVehicle:   "tires",
		SubVehicle:  "S2",
		Description: "ยางตำแหน่ง FR ไม่ผ่าน",
		Status:      models.FailedItemPending,
		FailType:    models.FailTypeFail,
		UserCreate:  "team1",
	}).Return(&models.FailedItem{ID: "f1"}, nil)

	res, err := s.Submit(ctx, testActor("team1"), " 70-1234 ", TireSubmission{
		Readings: []TireReading{
			{Position: "FL", SerialNo: "S1", LastMM: 8.5},
			{Position: "FR", SerialNo: "S2", LastMM: 3},
		},
		Failed: []FailedTire{
			{Position: "FR", SerialNo: "S2", Image: jpeg()},
			{Position: "RR", SerialNo: "unknown"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Updated, 2)
	assert.Equal(t, 1, res.FailedItems)
	assert.Empty(t, res.Warnings)
	inspections.AssertNumberOfCalls(t, "CreateFailedItem", 1)
}

func TestTireService_FailedTireIdentityIsTrimmed(t *testing.T) {
	s, tires, inspections, _ := newTestTireService()
	ctx := context.Background()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", mock.Anything).Return(&models.TireMileage{}, nil)
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, mock.MatchedBy(func(in models.FailedItemInput) bool {
		return in.SubVehicle == "S2" && in.Description == "ยางตำแหน่ง FR ไม่ผ่าน"
	})).Return(&models.FailedItem{ID: "f1"}, nil)

	res, err := s.Submit(ctx, testActor("team1"), "70-1234", TireSubmission{
		Readings: []TireReading{
			{Position: "FL", SerialNo: "S1", LastMM: 8},
			{Position: "FR", SerialNo: "S2", LastMM: 3},
		},
		Failed: []FailedTire{{Position: " FR ", SerialNo: "S2 "}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedItems)
	inspections.AssertNumberOfCalls(t, "CreateFailedItem", 1)
}

func TestTireService_SubmitMissingReading(t *testing.T) {
	s, tires, _, _ := newTestTireService()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)

	_, err := s.Submit(context.Background(), testActor("team1"), "70-1234", TireSubmission{
		Readings: []TireReading{{Position: "FL", SerialNo: "S1", LastMM: 8}},
	})
	var missing *MissingReadingsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"FR"}, missing.Positions)
	assert.False(t, missing.Invalid)
	tires.AssertNotCalled(t, "UpdateLastMM", mock.Anything, mock.Anything, mock.Anything)
}

func TestTireService_SubmitNegativeReading(t *testing.T) {
	s, tires, _, _ := newTestTireService()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)

	_, err := s.Submit(context.Background(), testActor("team1"), "70-1234", TireSubmission{
		Readings: []TireReading{
			{Position: "FL", SerialNo: "S1", LastMM: 8},
			{Position: "FR", SerialNo: "S2", LastMM: -1},
		},
	})
	var invalid *MissingReadingsError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, invalid.Invalid)
	assert.Equal(t, []string{"FR"}, invalid.Positions)
}

func TestTireService_SubmitUpdateFailure(t *testing.T) {
	s, tires, inspections, _ := newTestTireService()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", mock.MatchedBy(func(u models.TireTreadUpdate) bool { return u.SerialNo == "S1" })).
		Return(&models.TireMileage{}, nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", mock.MatchedBy(func(u models.TireTreadUpdate) bool { return u.SerialNo == "S2" })).
		Return(nil, errors.New("HTTP error! status: 500"))

	_, err := s.Submit(context.Background(), testActor("team1"), "70-1234", TireSubmission{
		Readings: []TireReading{
			{Position: "FL", SerialNo: "S1", LastMM: 8},
			{Position: "FR", SerialNo: "S2", LastMM: 7},
		},
		Failed: []FailedTire{{Position: "FL", SerialNo: "S1"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FR")
	inspections.AssertNotCalled(t, "CreateFailedItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestTireService_FailedItemErrorsAreWarnings(t *testing.T) {
	s, tires, inspections, _ := newTestTireService()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(mountedTires(), nil)
	tires.On("UpdateLastMM", mock.Anything, "70-1234", mock.Anything).Return(&models.TireMileage{}, nil)
	inspections.On("CreateFailedItem", mock.Anything, mock.Anything, mock.MatchedBy(func(in models.FailedItemInput) bool {
		return in.Description == "ดอกยางสึก" && in.Remark == "ดอกยางสึก"
	})).Return(nil, errors.New("HTTP error! status: 500"))

	res, err := s.Submit(context.Background(), testActor("team1"), "70-1234", TireSubmission{
		Readings: []TireReading{
			{Position: "FL", SerialNo: "S1", LastMM: 8},
			{Position: "FR", SerialNo: "S2", LastMM: 7},
		},
		Failed: []FailedTire{{Position: "FL", SerialNo: "S1", Notes: "ดอกยางสึก"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedItems)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "FL")
}

func TestTireService_NoSerialTires(t *testing.T) {
	s, tires, _, _ := newTestTireService()

	tires.On("ByTruck", mock.Anything, "70-1234").Return(&models.TruckTires{Data: []models.Tire{{TirePosition: "FL"}}}, nil)

	_, err := s.Submit(context.Background(), testActor("team1"), "70-1234", TireSubmission{})
	assert.ErrorIs(t, err, ErrNoTires)
}
