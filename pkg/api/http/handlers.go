package http

import (
	"errors"
	"net/http"

	"github.com/assetcanon/vulnd/internal/application/enrichment"
	"github.com/assetcanon/vulnd/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Single lookups build a synthetic asset around the queried vendor/model
// so the batch and lookup paths share one enrichment implementation.
const (
	lookupAssetID = "adhoc-lookup"
	lookupTagNum  = "ADHOC"

	errNoAssets   = "No assets provided"
	errNoVendor   = "Vendor parameter required"
	errNotFound   = "Could not find vulnerability data for this vendor/model"
	errEnrichFail = "Failed to enrich vulnerabilities"
)

// BatchRequest represents a batch enrichment request
type BatchRequest struct {
	Assets []domain.Asset `json:"assets"`
}

// BatchResponse represents a batch enrichment response
type BatchResponse struct {
	Enrichments    []domain.Enrichment `json:"enrichments"`
	Summary        domain.Summary      `json:"summary"`
	EnrichedCount  int                 `json:"enrichedCount"`
	RequestedCount int                 `json:"requestedCount"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// handleEnrichBatch handles batch enrichment requests
func (s *Server) handleEnrichBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid batch request body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errEnrichFail})
		return
	}

	result, err := s.service.EnrichBatch(c.Request.Context(), req.Assets)
	if err != nil {
		if errors.Is(err, enrichment.ErrNoAssets) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoAssets})
			return
		}
		s.logger.Error("batch enrichment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errEnrichFail})
		return
	}

	c.JSON(http.StatusOK, BatchResponse{
		Enrichments:    result.Enrichments,
		Summary:        result.Summary,
		EnrichedCount:  result.EnrichedCount,
		RequestedCount: result.RequestedCount,
	})
}

// handleLookup handles single vendor/model lookups
func (s *Server) handleLookup(c *gin.Context) {
	vendor := c.Query("vendor")
	if vendor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoVendor})
		return
	}

	asset := domain.Asset{
		ID:        lookupAssetID,
		TagNumber: lookupTagNum,
		ControlSystem: &domain.ControlSystem{
			ControllerMake:  vendor,
			ControllerModel: c.Query("model"),
		},
	}

	result, err := s.enricher.EnrichAsset(c.Request.Context(), asset)
	if err != nil {
		s.logger.Error("lookup enrichment failed",
			zap.String("vendor", vendor),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errEnrichFail})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNotFound})
		return
	}

	c.JSON(http.StatusOK, result)
}
