package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dqrepair/pipeline/internal/applier"
	"github.com/dqrepair/pipeline/internal/config"
	"github.com/dqrepair/pipeline/internal/dqmodel"
	"github.com/dqrepair/pipeline/internal/http/middleware"
	"github.com/dqrepair/pipeline/internal/ledger"
	"github.com/dqrepair/pipeline/internal/sink"
)

// ApplyHandler exposes the applier's preview/export/commit pass over a
// dataset and a previously detected issue set.
type ApplyHandler struct {
	sink             *sink.LocalSink
	led              *ledger.Ledger
	protectedColumns []string
}

// NewApplyHandler builds a handler protecting config.DefaultProtectedColumnKeywords.
// Use NewApplyHandlerWithProtectedColumns to pass a configured list instead.
func NewApplyHandler(artifactSink *sink.LocalSink, led *ledger.Ledger) *ApplyHandler {
	return NewApplyHandlerWithProtectedColumns(artifactSink, led, config.DefaultProtectedColumnKeywords)
}

func NewApplyHandlerWithProtectedColumns(artifactSink *sink.LocalSink, led *ledger.Ledger, protectedColumns []string) *ApplyHandler {
	return &ApplyHandler{sink: artifactSink, led: led, protectedColumns: protectedColumns}
}

type applyRequest struct {
	Rows            []dqmodel.Row    `json:"rows"`
	Issues          []dqmodel.Issue  `json:"issues"`
	SelectedIDs     map[string]bool  `json:"selected_ids,omitempty"`
	UnitPreferences map[string]string `json:"unit_preferences,omitempty"`
	Mode            string           `json:"mode"`
	SourceKey       string           `json:"source_key"`
}

type applyResponse struct {
	AppliedCount int               `json:"applied_count"`
	Changes      dqmodel.ChangeMap `json:"changes"`
	Locator      string            `json:"locator,omitempty"`
}

func (h *ApplyHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}
	if len(req.Issues) == 0 {
		c.Error(&middleware.ErrBadRequest{Err: errNoIssues})
		return
	}

	mode := applier.Mode(req.Mode)
	switch mode {
	case applier.ModePreview, applier.ModeExport, applier.ModeCommit:
	default:
		c.Error(&middleware.ErrBadRequest{Err: errBadMode})
		return
	}

	app := applier.NewWithProtectedColumns(h.sink, h.led, h.protectedColumns)
	result, err := app.ApplyFixes(c.Request.Context(), req.Rows, req.Issues, req.SelectedIDs, req.UnitPreferences, mode, req.SourceKey)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, applyResponse{
		AppliedCount: result.AppliedCount,
		Changes:      result.Changes,
		Locator:      result.Locator,
	})
}
