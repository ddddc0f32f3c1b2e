package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"polleria/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReservationHandler_Create(t *testing.T) {
	body := `{"date":"2026-03-14","time":"13:00","people":4,
		"customer":{"name":"Ana","email":"ana@example.com","phone":"999888777"}}`

	tests := []struct {
		name           string
		user           *model.User
		mockReturn     *model.Reservation
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Anonymous booking",
			mockReturn:     &model.Reservation{ID: 3, People: 4, Date: "2026-03-14", Time: "13:00", Status: model.ReservationStatusPending, AdvancePaid: true},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Booking by a signed-in customer",
			user:           testCustomer,
			mockReturn:     &model.Reservation{ID: 4, UserID: &testCustomer.ID, People: 4, Status: model.ReservationStatusPending},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Outside opening hours",
			mockError:      model.ErrOutsideOpeningHours,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReservationService)
			h := NewReservationHandler(mockService, zerolog.Nop())

			mockService.On("Create", mock.Anything, mock.MatchedBy(func(req *model.ReservationRequest) bool {
				return req.People == 4 && req.Customer != nil && req.Customer.Email == "ana@example.com"
			}), tt.user).Return(tt.mockReturn, tt.mockError)

			w := httptest.NewRecorder()
			h.Create(w, newRequest(http.MethodPost, "/api/reservations", body, "", tt.user))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				var got model.Reservation
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, tt.mockReturn.ID, got.ID)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestReservationHandler_Listings(t *testing.T) {
	t.Run("mine", func(t *testing.T) {
		mockService := new(MockReservationService)
		h := NewReservationHandler(mockService, zerolog.Nop())
		mockService.On("ListForUser", mock.Anything, testCustomer.ID).Return([]model.Reservation{{ID: 1}}, nil)

		w := httptest.NewRecorder()
		h.Mine(w, newRequest(http.MethodGet, "/api/reservations/my-reservations", "", "", testCustomer))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("mine without user", func(t *testing.T) {
		h := NewReservationHandler(new(MockReservationService), zerolog.Nop())

		w := httptest.NewRecorder()
		h.Mine(w, newRequest(http.MethodGet, "/api/reservations/my-reservations", "", "", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("all", func(t *testing.T) {
		mockService := new(MockReservationService)
		h := NewReservationHandler(mockService, zerolog.Nop())
		mockService.On("ListAll", mock.Anything, 0, 0).Return(nil, nil)

		w := httptest.NewRecorder()
		h.All(w, newRequest(http.MethodGet, "/api/reservations", "", "", testCashier))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		mockService.AssertExpectations(t)
	})
}

func TestReservationHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
	}{
		{name: "Confirmed", body: `{"status":"confirmed"}`, expectedStatus: http.StatusOK},
		{name: "Unknown status", body: `{"status":"maybe"}`, mockError: model.ErrInvalidStatus, expectedStatus: http.StatusBadRequest},
		{name: "Unknown reservation", body: `{"status":"cancelled"}`, mockError: model.ErrReservationNotFound, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReservationService)
			h := NewReservationHandler(mockService, zerolog.Nop())
			mockService.On("UpdateStatus", mock.Anything, int64(12), mock.AnythingOfType("model.ReservationStatus")).Return(tt.mockError)

			w := httptest.NewRecorder()
			h.UpdateStatus(w, newRequest(http.MethodPatch, "/api/reservations/12/status", tt.body, "12", testCashier))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestReservationHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockReturn     *model.Reservation
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{name: "Owner", id: "12", mockReturn: &model.Reservation{ID: 12, People: 4}, expectedStatus: http.StatusOK, expectService: true},
		{name: "Not the owner", id: "12", mockError: model.ErrForbidden, expectedStatus: http.StatusForbidden, expectService: true},
		{name: "Unknown reservation", id: "99", mockError: model.ErrReservationNotFound, expectedStatus: http.StatusNotFound, expectService: true},
		{name: "Bad id", id: "abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReservationService)
			h := NewReservationHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("GetByID", mock.Anything, mock.AnythingOfType("int64"), testCustomer).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			h.GetByID(w, newRequest(http.MethodGet, "/api/reservations/"+tt.id, "", tt.id, testCustomer))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var res model.Reservation
				require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
				assert.Equal(t, int64(12), res.ID)
			}
			mockService.AssertExpectations(t)
		})
	}
}
