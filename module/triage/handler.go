package triage

import (
	"net/http"
	"time"

	"NeuroQ/logger"
	midsec "NeuroQ/middleware/security"
	"NeuroQ/service/events"
	"NeuroQ/service/metrics"
	"NeuroQ/tools/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	p   Predictor
	pub events.Publisher
}

func NewHandler(p Predictor, pub events.Publisher) *Handler {
	if pub == nil {
		pub = events.Discard{}
	}
	return &Handler{p: p, pub: pub}
}

// submission is the request body. input_text must be present; an empty
// string is a valid submission.
type submission struct {
	Input
	Text *string `json:"input_text"`
}

// Predict POST /api/v1/symptoms/predict
func (h *Handler) Predict(c *gin.Context) {
	var sub submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if sub.Text == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("input_text is required"))
		return
	}
	in := sub.Input
	in.Text = *sub.Text
	userID := c.GetString(midsec.CtxUserIDKey)

	start := time.Now()
	out := h.p.Predict(in)
	metrics.TriageDuration.Observe(time.Since(start).Seconds())
	metrics.TriageOutcomes.WithLabelValues(out.Label, string(out.Severity), string(out.Status)).Inc()

	if out.Defaulted() {
		logger.Warn("[triage] defaulted", zap.String("user_id", userID), zap.String("reason", out.Reason))
	}
	if out.Emergency {
		logger.Info("[triage] emergency contact suggested", zap.String("user_id", userID))
	}

	h.pub.Publish(events.New(events.KindTriage, userID, nil, map[string]any{
		"input":   in,
		"outcome": out,
	}))
	c.JSON(http.StatusOK, out)
}
