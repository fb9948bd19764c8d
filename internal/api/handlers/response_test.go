package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Status string `json:"status"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"BOOKED"}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, "BOOKED", v.Status)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"BOOKED","version":3}`))
	assert.Error(t, DecodeJSON(r, &v), "unknown fields are rejected")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.Error(t, DecodeJSON(r, &v))
}

func TestRespondInternalError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondInternalError(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"внутренняя ошибка сервера"}`, w.Body.String())
}

func TestPathInt64(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"slotId": "15"})
	id, err := PathInt64(r, "slotId")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"0", "-3", "abc"} {
		r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"slotId": raw})
		_, err = PathInt64(r, "slotId")
		assert.Error(t, err, raw)
	}

	_, err = PathInt64(httptest.NewRequest(http.MethodGet, "/", nil), "slotId")
	assert.Error(t, err)
}

func TestQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?operatingRoomId=3&page=2&startDate=2025-03-10T09:00:00Z&status=BOOKED", nil)

	roomID, err := QueryInt64(r, "operatingRoomId")
	require.NoError(t, err)
	assert.Equal(t, int64(3), *roomID)

	page, err := QueryInt(r, "page")
	require.NoError(t, err)
	assert.Equal(t, 2, *page)

	size, err := QueryInt(r, "size")
	require.NoError(t, err)
	assert.Nil(t, size)

	start, err := QueryTime(r, "startDate")
	require.NoError(t, err)
	assert.Equal(t, 9, start.Hour())

	assert.Equal(t, "BOOKED", *QueryString(r, "status"))
	assert.Nil(t, QueryString(r, "endDate"))

	_, err = QueryTime(httptest.NewRequest(http.MethodGet, "/?startDate=10.03.2025", nil), "startDate")
	assert.Error(t, err)
}
