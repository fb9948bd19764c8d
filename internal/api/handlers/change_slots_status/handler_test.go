package change_slots_status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/service/slots"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
)

type fakeService struct {
	got *models.ChangeStatusRequest
	err error
}

func (f *fakeService) ChangeStatus(ctx context.Context, req *models.ChangeStatusRequest) ([]models.SlotResponse, error) {
	f.got = req
	return []models.SlotResponse{}, f.err
}

func serve(svc *fakeService, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPatch, "/api/v1/surgeries/42/slots/status", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"surgeryId": "42"})
	w := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}
	w := serve(svc, `{"status":"AVAILABLE"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, &models.ChangeStatusRequest{SurgeryID: 42, Status: "AVAILABLE"}, svc.got)

	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{err: slots.ErrInvalidStatus}, `{"status":"CANCELLED"}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(&fakeService{err: slots.ErrSurgeryNotFound}, `{"status":"BOOKED"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, `not json`).Code)
}
