package projection

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	httperr "github.com/aevon-lab/salescope/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/overview", s.HandleOverview)
	v1.GET("/stores", s.HandleStores)
	v1.GET("/stores/top", s.HandleTopStores)
	v1.GET("/stores/struggling", s.HandleStrugglingStores)
	v1.GET("/products", s.HandleProducts)
	v1.GET("/locations", s.HandleLocations)
	v1.GET("/trends", s.HandleTrends)
	v1.GET("/anomalies", s.HandleAnomalies)
	v1.GET("/rules", s.HandleListRules)
	v1.GET("/rules/:name", s.HandleRunRule)
}

// HandleOverview handles GET /v1/overview
func (s *Service) HandleOverview(c *gin.Context) {
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Overview(ctx)
	})
}

// HandleStores handles GET /v1/stores
func (s *Service) HandleStores(c *gin.Context) {
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Stores(ctx)
	})
}

// HandleTopStores handles GET /v1/stores/top
// Query parameters: n
func (s *Service) HandleTopStores(c *gin.Context) {
	n, err := intParam(c, "n", s.Options().TopStores)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.TopStores(ctx, n)
	})
}

// HandleStrugglingStores handles GET /v1/stores/struggling
// Query parameters: p
func (s *Service) HandleStrugglingStores(c *gin.Context) {
	p, err := floatParam(c, "p", s.Options().StrugglingPercentile)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.StrugglingStores(ctx, p)
	})
}

// HandleProducts handles GET /v1/products
// Query parameters: n
func (s *Service) HandleProducts(c *gin.Context) {
	n, err := intParam(c, "n", s.Options().TopCategories)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Products(ctx, n)
	})
}

// HandleLocations handles GET /v1/locations
func (s *Service) HandleLocations(c *gin.Context) {
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Locations(ctx)
	})
}

// HandleTrends handles GET /v1/trends
// Query parameters: granularity (month | quarter)
func (s *Service) HandleTrends(c *gin.Context) {
	granularity := c.DefaultQuery("granularity", string(s.Options().TrendGranularity))
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Trends(ctx, granularity)
	})
}

// HandleAnomalies handles GET /v1/anomalies
// Query parameters: z
func (s *Service) HandleAnomalies(c *gin.Context) {
	z, err := floatParam(c, "z", s.Options().AnomalyZ)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.Anomalies(ctx, z)
	})
}

// HandleListRules handles GET /v1/rules
func (s *Service) HandleListRules(c *gin.Context) {
	rules, err := s.Rules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// HandleRunRule handles GET /v1/rules/:name
func (s *Service) HandleRunRule(c *gin.Context) {
	name := c.Param("name")
	respond(c, func(ctx context.Context) (*QueryResponse, error) {
		return s.RunRule(ctx, name)
	})
}

func respond(c *gin.Context, run func(ctx context.Context) (*QueryResponse, error)) {
	resp, err := run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidParameter):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidParameterError,
			Message:   "Invalid query parameter",
			Details:   err.Error(),
		})
	case errors.Is(err, aggregation.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Unknown reduction rule",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrNoDataset):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpDatasetUnavailableError,
			Message:   "No dataset loaded yet",
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to run analysis",
			Details:   err.Error(),
		})
	}
}

func intParam(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, aggregation.Invalidf("query parameter %s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func floatParam(c *gin.Context, name string, fallback float64) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, aggregation.Invalidf("query parameter %s must be a number, got %q", name, raw)
	}
	return v, nil
}
