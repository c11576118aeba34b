// Package handlers exposes the facilitator's HTTP surface (§4.6): POST
// /verify, POST /settle, GET /supported, GET /discovery/resources, GET
// /health, wired as gin handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/x402-network/facilitator/pkg/discovery"
	"github.com/x402-network/facilitator/pkg/facilitator"
	"github.com/x402-network/facilitator/pkg/types"
)

// Version is the facilitator build version, set at build time via ldflags
// (e.g. -ldflags "-X .../pkg/handlers.Version=1.2.3").
var Version = "dev"

// Handler wires a Facilitator and a discovery Registry into gin routes.
type Handler struct {
	facilitator facilitator.Facilitator
	discovery   *discovery.Registry
}

// NewHandler builds a Handler. discovery may be nil, in which case
// /discovery/resources always returns an empty page.
func NewHandler(fac facilitator.Facilitator, registry *discovery.Registry) *Handler {
	return &Handler{facilitator: fac, discovery: registry}
}

// Register attaches every route to r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/verify", h.Verify)
	r.POST("/settle", h.Settle)
	r.GET("/supported", h.Supported)
	r.GET("/discovery/resources", h.Discovery)
	r.GET("/health", h.Health)
}

// Verify handles POST /verify. Protocol errors (malformed payload, envelope
// mismatch) return their declared HTTP status; policy outcomes always
// return 200 with isValid=false (§7).
func (h *Handler) Verify(c *gin.Context) {
	var req types.VerifyRequest
	if err := bindStrict(c, &req); err != nil {
		respondProtocolError(c, types.NewInvalidPaymentPayloadError(err.Error()))
		return
	}

	resp, err := h.facilitator.Verify(c.Request.Context(), req)
	if err != nil {
		respondProtocolError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Settle handles POST /settle.
func (h *Handler) Settle(c *gin.Context) {
	var req types.VerifyRequest
	if err := bindStrict(c, &req); err != nil {
		respondProtocolError(c, types.NewInvalidPaymentPayloadError(err.Error()))
		return
	}

	resp, err := h.facilitator.Settle(c.Request.Context(), req)
	if err != nil {
		respondProtocolError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Supported handles GET /supported.
func (h *Handler) Supported(c *gin.Context) {
	resp, err := h.facilitator.Supported(c.Request.Context())
	if err != nil {
		respondProtocolError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discovery handles GET /discovery/resources, with ?type=, ?limit=, and ?offset=.
func (h *Handler) Discovery(c *gin.Context) {
	if h.discovery == nil {
		c.JSON(http.StatusOK, types.DiscoveryResponse{
			X402Version: types.CurrentX402Version,
			Items:       []types.DiscoveryResource{},
			Pagination:  types.Pagination{Limit: 20, Offset: 0, Total: 0},
		})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	c.JSON(http.StatusOK, h.discovery.List(c.Query("type"), limit, offset))
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"version":     Version,
		"x402Version": types.CurrentX402Version,
	})
}

// bindStrict decodes the request body into out, rejecting unknown fields,
// matching the wire-format strictness DecodePaymentPayloadHeader enforces
// on the X-PAYMENT header.
func bindStrict(c *gin.Context, out interface{}) error {
	dec := jsonDecoder(c)
	return dec.Decode(out)
}

func respondProtocolError(c *gin.Context, err error) {
	var perr *types.ProtocolError
	if errors.As(err, &perr) {
		c.JSON(perr.Status, gin.H{"error": perr.Code, "message": perr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "InternalError", "message": err.Error()})
}
