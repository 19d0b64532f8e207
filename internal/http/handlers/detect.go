package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dqrepair/pipeline/internal/analyzer"
	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/http/middleware"
	"github.com/dqrepair/pipeline/internal/ledger"
	"github.com/dqrepair/pipeline/internal/llm"
	"github.com/dqrepair/pipeline/internal/orchestrator"
)

// DetectHandler exposes the orchestrator's detection pass over a dataset
// submitted in the request body, so callers don't need the CLI or a
// filesystem-resident row source to scan a table.
type DetectHandler struct {
	gw                llm.Completer
	led               *ledger.Ledger
	logger            *slog.Logger
	softDeadline      time.Duration
	imputationColumns []string
}

func NewDetectHandler(gw llm.Completer, led *ledger.Ledger, logger *slog.Logger, softDeadline time.Duration, imputationColumns []string) *DetectHandler {
	return &DetectHandler{gw: gw, led: led, logger: logger, softDeadline: softDeadline, imputationColumns: imputationColumns}
}

type detectRequest struct {
	Columns []string      `json:"columns"`
	Rows    []dqmodel.Row `json:"rows"`
}

type detectResponse struct {
	Issues  []dqmodel.Issue `json:"issues"`
	Summary dqmodel.Summary `json:"summary"`
}

func (h *DetectHandler) Detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}
	if len(req.Columns) == 0 {
		c.Error(&middleware.ErrBadRequest{Err: errNoColumns})
		return
	}

	ds := &dqmodel.Dataset{Columns: req.Columns, Rows: req.Rows}
	profiles := analyzer.Analyze(ds)

	orc := orchestrator.New(h.gw, h.led, h.logger, h.softDeadline, h.imputationColumns...)
	issues, summary, err := orc.DetectIssues(c.Request.Context(), req.Rows, profiles)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detectResponse{Issues: issues, Summary: summary})
}
