package handlers

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fairway-labs/caddie-engine/internal/engine"
	"github.com/fairway-labs/caddie-engine/internal/types"
	"github.com/fairway-labs/caddie-engine/internal/websocket"
	"github.com/fairway-labs/caddie-engine/pkg/cache"
	"github.com/fairway-labs/caddie-engine/pkg/config"
)

// OptimizeHandler handles aim-point optimization endpoints
type OptimizeHandler struct {
	cache  *cache.AimCacheService
	wsHub  *websocket.Hub
	config *config.Config
	logger *logrus.Logger
}

// NewOptimizeHandler creates a new optimize handler
func NewOptimizeHandler(
	cache *cache.AimCacheService,
	wsHub *websocket.Hub,
	config *config.Config,
	logger *logrus.Logger,
) *OptimizeHandler {
	return &OptimizeHandler{
		cache:  cache,
		wsHub:  wsHub,
		config: config,
		logger: logger,
	}
}

// Optimize handles aim-point optimization requests
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req types.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return
	}

	if details := validateRequest(&req); len(details) > 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "Invalid optimization request",
			Code:    "INVALID_REQUEST",
			Details: details,
		})
		return
	}
	h.applyDefaults(&req)

	strategy, err := buildStrategy(req.Strategy, h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_STRATEGY",
		})
		return
	}

	if req.RunID == "" {
		req.RunID = uuid.New().String()
	}
	runLogger := h.logger.WithFields(logrus.Fields{
		"run_id":   req.RunID,
		"strategy": strategy.Name(),
	})

	// Seeded requests are deterministic, so the digest of the request fully
	// identifies the result. Unseeded runs are never cached.
	cacheKey := ""
	if req.Seed != 0 {
		cacheKey = h.generateCacheKey(&req)
		if cached, err := h.cache.GetAimResult(c.Request.Context(), cacheKey); err == nil && cached != nil {
			runLogger.WithField("cache_key", cacheKey).Info("Returning cached aim result")
			cached.RunID = req.RunID
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	input := h.buildInput(&req)

	timeout := time.Duration(h.config.OptimizeTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	startTime := time.Now()
	result, err := strategy.Run(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			runLogger.WithError(err).Warn("Optimization run timed out or was cancelled")
			c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
				Error: "Optimization did not finish in time",
				Code:  "OPTIMIZATION_TIMEOUT",
			})
			return
		}
		runLogger.WithError(err).Error("Optimization failed")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Optimization failed",
			Code:  "OPTIMIZATION_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
		return
	}

	response := &types.OptimizeResponse{
		RunID:       req.RunID,
		Strategy:    strategy.Name(),
		Candidates:  toCandidateJSON(result.Candidates),
		Iterations:  result.Iterations,
		Evaluations: result.Evaluations,
		DurationMs:  time.Since(startTime).Milliseconds(),
	}

	if cacheKey != "" {
		ttl := time.Duration(h.config.CacheTTLHours) * time.Hour
		if err := h.cache.SetAimResult(c.Request.Context(), cacheKey, response, ttl); err != nil {
			runLogger.WithError(err).Warn("Failed to cache aim result")
		}
	}

	h.wsHub.BroadcastToRun(req.RunID, types.ProgressUpdate{
		Type:        "completed",
		RunID:       req.RunID,
		Evaluations: result.Evaluations,
		BestES:      bestES(response.Candidates),
		Timestamp:   time.Now(),
	})

	runLogger.WithFields(logrus.Fields{
		"candidates":  len(response.Candidates),
		"evaluations": response.Evaluations,
		"duration_ms": response.DurationMs,
	}).Info("Optimization completed")

	c.JSON(http.StatusOK, response)
}

// Validate checks a request without running the search
func (h *OptimizeHandler) Validate(c *gin.Context) {
	var req types.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return
	}

	if details := validateRequest(&req); len(details) > 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "Invalid optimization request",
			Code:    "INVALID_REQUEST",
			Details: details,
		})
		return
	}
	if _, err := buildStrategy(req.Strategy, h.logger); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_STRATEGY",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ListStrategies returns the available search strategies
func (h *OptimizeHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"strategies": []string{"cem", "ring-grid"},
		"default":    "cem",
	})
}

// buildStrategy maps the wire name onto a search implementation. The set is
// closed; anything else is a client error.
func buildStrategy(name string, logger *logrus.Logger) (engine.Strategy, error) {
	entry := logger.WithField("component", "engine")
	switch name {
	case "", "cem":
		return engine.NewCEMSearch(entry), nil
	case "ring-grid":
		return engine.NewRingGridSearch(entry), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func validateRequest(req *types.OptimizeRequest) map[string]string {
	details := make(map[string]string)

	if req.MaxDistanceMeters <= 0 {
		details["maxDistanceMeters"] = "must be positive"
	}
	if req.Skill.OfflineDeg <= 0 || req.Skill.DistPct <= 0 {
		details["skill"] = "offlineDeg and distPct must be positive"
	}
	if req.Mask.Width <= 0 || req.Mask.Height <= 0 {
		details["mask"] = "width and height must be positive"
	} else if len(req.Mask.Classes) != req.Mask.Width*req.Mask.Height {
		details["mask"] = fmt.Sprintf("classes length %d does not match %dx%d",
			len(req.Mask.Classes), req.Mask.Width, req.Mask.Height)
	}
	if req.Mask.East <= req.Mask.West || req.Mask.North <= req.Mask.South {
		details["mask_bbox"] = "bounding box must have positive extent"
	}
	if req.Eval.NEarly < 0 || req.Eval.NFinal < 0 || req.Eval.CI95Stop < 0 {
		details["eval"] = "budgets must not be negative"
	}
	if req.Constraints.MinSeparationMeters < 0 {
		details["constraints"] = "minSeparationMeters must not be negative"
	}

	return details
}

// applyDefaults fills unset evaluation budgets from the service configuration.
func (h *OptimizeHandler) applyDefaults(req *types.OptimizeRequest) {
	if req.Eval.NEarly == 0 {
		req.Eval.NEarly = h.config.DefaultNEarly
	}
	if req.Eval.NFinal == 0 {
		req.Eval.NFinal = h.config.DefaultNFinal
	}
	if req.Eval.CI95Stop == 0 {
		req.Eval.CI95Stop = h.config.DefaultCI95Stop
	}
}

func (h *OptimizeHandler) buildInput(req *types.OptimizeRequest) *engine.Input {
	input := &engine.Input{
		Start:             req.Start,
		Pin:               req.Pin,
		MaxDistanceMeters: req.MaxDistanceMeters,
		Skill:             req.Skill,
		Mask:              &req.Mask,
		Eval:              req.Eval,
		Constraints:       req.Constraints,
		Seed:              req.Seed,
	}
	if req.Tuning != nil {
		input.Tuning = *req.Tuning
	}

	runID := req.RunID
	input.Progress = func(p engine.Progress) {
		h.wsHub.BroadcastToRun(runID, types.ProgressUpdate{
			Type:        "progress",
			RunID:       runID,
			Phase:       p.Phase,
			Iteration:   p.Iteration,
			Evaluations: p.Evaluations,
			BestES:      p.BestES,
			Timestamp:   time.Now(),
		})
	}
	return input
}

// generateCacheKey digests the deterministic parts of a request. RunID is
// excluded: it identifies the progress stream, not the computation.
func (h *OptimizeHandler) generateCacheKey(req *types.OptimizeRequest) string {
	keyed := *req
	keyed.RunID = ""
	data, err := json.Marshal(keyed)
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("%x", md5.Sum(data))
}

func toCandidateJSON(candidates []engine.Candidate) []types.CandidateJSON {
	out := make([]types.CandidateJSON, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, types.CandidateJSON{
			Lon:    c.Point.Lon,
			Lat:    c.Point.Lat,
			ES:     c.ES,
			ESCI95: c.CI95,
		})
	}
	return out
}

func bestES(candidates []types.CandidateJSON) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return candidates[0].ES
}
