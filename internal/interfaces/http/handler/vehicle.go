package handler

import (
	"context"

	"github.com/dealerflow/backend/internal/infrastructure/vehicledata"
	"github.com/gin-gonic/gin"
)

// VehicleLookup resolves a registration mark to vehicle details
type VehicleLookup interface {
	Lookup(ctx context.Context, vrm string) (*vehicledata.Vehicle, error)
}

// VehicleHandler serves vehicle lookups used to prefill sales documents
type VehicleHandler struct {
	BaseHandler
	lookup VehicleLookup
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(lookup VehicleLookup) *VehicleHandler {
	return &VehicleHandler{lookup: lookup}
}

// Lookup godoc
// @Summary      Look up a vehicle by registration
// @Tags         vehicles
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        vrm         path   string true "Vehicle registration mark"
// @Success      200 {object} dto.Response{data=vehicledata.Vehicle}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Router       /vehicles/{vrm} [get]
func (h *VehicleHandler) Lookup(c *gin.Context) {
	if _, ok := h.tenantID(c); !ok {
		return
	}

	vehicle, err := h.lookup.Lookup(c.Request.Context(), c.Param("vrm"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vehicle)
}
