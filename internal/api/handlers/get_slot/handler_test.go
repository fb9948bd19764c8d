package get_slot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
)

type fakeService struct {
	err error
}

func (f *fakeService) GetByID(ctx context.Context, id int64) (*models.SlotResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SlotResponse{ID: id, OperatingRoomID: 1, Status: "AVAILABLE"}, nil
}

func serve(svc *fakeService, slotID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/slots/"+slotID, nil)
	r = mux.SetURLVars(r, map[string]string{"slotId": slotID})
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	w := serve(&fakeService{}, "7")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)

	assert.Equal(t, http.StatusNotFound, serve(&fakeService{err: slots.ErrSlotNotFound}, "7").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "0").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: errors.New("boom")}, "7").Code)
}
