package list_slots

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
)

type fakeService struct {
	got *models.ListSlotsRequest
	err error
}

func (f *fakeService) List(ctx context.Context, req *models.ListSlotsRequest) (*models.SlotListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.SlotListResponse{
		Data: []models.SlotResponse{},
		Meta: models.PageMetaResponse{Total: 0, Page: 1, LastPage: 1},
	}, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandle_ParsesFilters(t *testing.T) {
	svc := &fakeService{}
	w := serve(svc, "/api/v1/slots?status=AVAILABLE&operatingRoomId=1&startDate=2025-03-10T09:00:00Z&endDate=2025-03-10T12:00:00Z&page=2&size=10")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"meta":{"total":0,"page":1,"lastPage":1}}`, w.Body.String())

	require.NotNil(t, svc.got)
	assert.Equal(t, "AVAILABLE", *svc.got.Status)
	assert.Equal(t, int64(1), *svc.got.OperatingRoomID)
	assert.Equal(t, 9, svc.got.StartDate.Hour())
	assert.Equal(t, 12, svc.got.EndDate.Hour())
	assert.Equal(t, 2, *svc.got.Page)
	assert.Equal(t, 10, *svc.got.Size)
}

func TestHandle_MalformedPaginationIsIgnored(t *testing.T) {
	svc := &fakeService{}
	w := serve(svc, "/api/v1/slots?page=two&size=10")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.got.Page)
	assert.Nil(t, svc.got.Size)
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/api/v1/slots?operatingRoomId=x").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/api/v1/slots?startDate=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{err: slots.ErrInvalidInput}, "/api/v1/slots?status=FREE").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: errors.New("boom")}, "/api/v1/slots").Code)
}
