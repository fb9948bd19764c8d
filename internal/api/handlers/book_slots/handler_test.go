package book_slots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/service/slots/models"
	bookSlots "github.com/m04kA/SMC-ScheduleService/internal/usecase/book_slots"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
)

type fakeUseCase struct {
	got  *bookSlots.Request
	resp *bookSlots.Response
	err  error
}

func (f *fakeUseCase) Execute(ctx context.Context, req *bookSlots.Request) (*bookSlots.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(uc *fakeUseCase, body string) *httptest.ResponseRecorder {
	h := NewHandler(uc, logger.NewNop())
	w := httptest.NewRecorder()
	h.Handle(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)))
	return w
}

const validBody = `{"operatingRoomId":1,"startTime":"2025-03-10T09:30:00Z","endTime":"2025-03-10T10:30:00Z","surgeryId":42}`

func TestHandle_Created(t *testing.T) {
	surgery := int64(42)
	start := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &bookSlots.Response{Slots: []*domain.Slot{
		{ID: 2, OperatingRoomID: 1, StartTime: start, EndTime: start.Add(30 * time.Minute), Status: domain.StatusBooked, SurgeryID: &surgery},
		{ID: 3, OperatingRoomID: 1, StartTime: start.Add(30 * time.Minute), EndTime: start.Add(time.Hour), Status: domain.StatusBooked, SurgeryID: &surgery},
	}}}

	w := serve(uc, validBody)
	require.Equal(t, http.StatusCreated, w.Code)

	require.NotNil(t, uc.got)
	assert.Equal(t, int64(1), uc.got.OperatingRoomID)
	assert.Equal(t, int64(42), uc.got.SurgeryID)
	assert.True(t, uc.got.StartTime.Equal(start))

	var body []models.SlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "BOOKED", body[0].Status)
	assert.Equal(t, "2025-03-10T09:30:00Z", body[0].StartTime)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"conflict", validBody, bookSlots.ErrSlotsNotAvailable, http.StatusConflict},
		{"invalid input", validBody, bookSlots.ErrInvalidInput, http.StatusBadRequest},
		{"internal", validBody, errors.New("db down"), http.StatusInternalServerError},
		{"malformed body", `{"operatingRoomId":`, nil, http.StatusBadRequest},
		{"bad time", `{"operatingRoomId":1,"startTime":"09:30","endTime":"10:30","surgeryId":42}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(&fakeUseCase{err: tt.err}, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "db down")
		})
	}
}
