package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dealerflow/backend/internal/infrastructure/vehicledata"
	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVehicleLookup is a mock implementation of VehicleLookup
type MockVehicleLookup struct {
	mock.Mock
}

func (m *MockVehicleLookup) Lookup(ctx context.Context, vrm string) (*vehicledata.Vehicle, error) {
	args := m.Called(ctx, vrm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicledata.Vehicle), args.Error(1)
}

func TestVehicleHandler_Lookup(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		lookup := new(MockVehicleLookup)
		lookup.On("Lookup", mock.Anything, "AB12CDE").Return(&vehicledata.Vehicle{
			VRM:               "AB12CDE",
			Make:              "FORD",
			Model:             "FIESTA",
			Colour:            "BLUE",
			FuelType:          "PETROL",
			YearOfManufacture: 2019,
		}, nil)
		api := newTestAPI(t, lookup)

		w := api.do(t, http.MethodGet, "/api/v1/vehicles/AB12CDE", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var vehicle vehicledata.Vehicle
		decode(t, w, &vehicle)
		assert.Equal(t, "FORD", vehicle.Make)
		assert.Equal(t, 2019, vehicle.YearOfManufacture)
		lookup.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", vehicledata.ErrVehicleNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid registration", vehicledata.ErrInvalidVRM, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"provider down", fmt.Errorf("%w: status 503", vehicledata.ErrUnavailable), http.StatusBadGateway, dto.ErrCodeVehicleDataUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := new(MockVehicleLookup)
			lookup.On("Lookup", mock.Anything, "XX99XXX").Return(nil, tt.err)
			api := newTestAPI(t, lookup)

			w := api.do(t, http.MethodGet, "/api/v1/vehicles/XX99XXX", nil, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			env := decode(t, w, nil)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}
