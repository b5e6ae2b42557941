package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/ds124wfegd/camera-rental/internal/service"
	"github.com/gin-gonic/gin"
)

type RentalHandler struct {
	rentalService service.RentalService
}

func NewRentalHandler(rentalService service.RentalService) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

// ListRentals serves GET /admin/rentals?taxonomy=&filter=&month=&camera_id=&limit=&offset=.
func (h *RentalHandler) ListRentals(c *gin.Context) {
	taxonomy, key, err := resolveFilter(c.Query("taxonomy"), c.Query("filter"))
	if err != nil {
		respondError(c, err)
		return
	}

	month, valid := optionalMonth(c, "month")
	if !valid {
		return
	}
	cameraID, valid := optionalInt64(c, "camera_id")
	if !valid {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.rentalService.ListRentals(c.Request.Context(), &service.RentalQuery{
		Taxonomy: taxonomy,
		Filter:   key,
		Month:    month,
		CameraID: cameraID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Rentals retrieved",
		Data:    page.Items,
		Meta: map[string]interface{}{
			"total":    page.Total,
			"limit":    page.Limit,
			"offset":   page.Offset,
			"has_more": page.Offset+len(page.Items) < page.Total,
		},
	})
}

func (h *RentalHandler) CountFilters(c *gin.Context) {
	taxonomy, err := rental.ParseTaxonomy(c.Query("taxonomy"))
	if err != nil {
		respondError(c, err)
		return
	}
	month, valid := optionalMonth(c, "month")
	if !valid {
		return
	}

	counts, err := h.rentalService.CountFilters(c.Request.Context(), taxonomy, month)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Filter counts retrieved", counts)
}

func (h *RentalHandler) NeedsAction(c *gin.Context) {
	bookings, err := h.rentalService.NeedsAction(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []*entity.Booking{}
	}
	ok(c, http.StatusOK, "Rentals needing action retrieved", bookings)
}

// resolveFilter validates the filter key. Without an explicit taxonomy the status one is
// assumed, unless the key only exists in the delivery taxonomy.
func resolveFilter(rawTaxonomy, rawKey string) (rental.Taxonomy, rental.FilterKey, error) {
	taxonomy, err := rental.ParseTaxonomy(rawTaxonomy)
	if err != nil {
		return "", "", err
	}
	if rawKey == "" {
		return taxonomy, "", nil
	}

	key, err := rental.ParseFilterKey(taxonomy, rawKey)
	if err != nil && rawTaxonomy == "" {
		taxonomy = rental.TaxonomyDelivery
		key, err = rental.ParseFilterKey(taxonomy, rawKey)
	}
	return taxonomy, key, err
}
