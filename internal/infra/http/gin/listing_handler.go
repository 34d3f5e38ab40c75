package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"reva/internal/app/dto"
	listingapp "reva/internal/app/handlers/listings"
	"reva/internal/app/middleware"
	"reva/internal/app/queries"
)

// ListingHandler wires catalog queries to HTTP.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h ListingHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	result, err := queries.Ask[listingapp.ListListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingapp.ListListingsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Search accepts location, min_price, max_price and guests. Negative bounds count as unset;
// anything that is not an integer is rejected.
func (h ListingHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	minPrice, err := queryInt64(c, "min_price")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	maxPrice, err := queryInt64(c, "max_price")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	guests, err := queryInt64(c, "guests")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := listingapp.SearchListingsQuery{
		Location:  strings.TrimSpace(c.Query("location")),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		MinGuests: int(guests),
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	result, err := queries.Ask[listingapp.GetListingQuery, *dto.ListingDetail](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// queryInt64 reads an optional integer query parameter. Missing and negative values yield 0.
func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", middleware.ErrValidation, name, raw)
	}
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

var _ ListingHTTP = ListingHandler{}
