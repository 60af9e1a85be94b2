package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"vault/domain/dto"
	"vault/infrastructure/logger"
	"vault/interfaces/middleware"
	"vault/usecase"

	"github.com/gin-gonic/gin"
)

// DefaultMountWait bounds how long the first page render waits for the list.
const DefaultMountWait = 3 * time.Second

type IVideoHandler interface {
	Index(ctx *gin.Context)
	Submit(ctx *gin.Context)
	Toggle(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	State(ctx *gin.Context)
}

type VideoHandler struct {
	mountWait time.Duration
	location  *time.Location
}

func NewVideoHandler(mountWait time.Duration, location *time.Location) IVideoHandler {
	if mountWait <= 0 {
		mountWait = DefaultMountWait
	}
	if location == nil {
		location = time.Local
	}
	return &VideoHandler{mountWait: mountWait, location: location}
}

// Index handles GET /
func (h *VideoHandler) Index(ctx *gin.Context) {
	sess, ok := h.session(ctx)
	if !ok {
		return
	}

	if !sess.Controller.State().Mounted {
		waitCtx, cancel := context.WithTimeout(ctx.Request.Context(), h.mountWait)
		err := sess.Controller.DispatchAndWait(waitCtx, usecase.Mounted{})
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			h.abort(ctx, err)
			return
		}
	}

	ctx.HTML(http.StatusOK, pageTemplateName, NewPageView(sess.Controller.State(), h.location))
}

// Submit handles POST /videos
func (h *VideoHandler) Submit(ctx *gin.Context) {
	sess, ok := h.session(ctx)
	if !ok {
		return
	}

	var form dto.SubmitVideoForm
	if err := ctx.ShouldBind(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid request", "details": err.Error()})
		return
	}

	reqCtx := ctx.Request.Context()
	if err := sess.Controller.DispatchAndWait(reqCtx, usecase.InputChanged{Value: form.VideoID}); err != nil {
		h.abort(ctx, err)
		return
	}
	if _, err := sess.Controller.Apply(reqCtx, usecase.SubmitRequested{}); err != nil {
		h.abort(ctx, err)
		return
	}

	logger.GetLogger().WithField("session_id", sess.ID).WithField("video_id", form.VideoID).Info("Video submitted")
	if wantsJSON(ctx) {
		ctx.JSON(http.StatusAccepted, toResponse(sess.Controller.State()))
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// Toggle handles POST /videos/:videoId/toggle
func (h *VideoHandler) Toggle(ctx *gin.Context) {
	sess, ok := h.session(ctx)
	if !ok {
		return
	}

	videoID := ctx.Param("videoId")
	if err := sess.Controller.DispatchAndWait(ctx.Request.Context(), usecase.ToggleRequested{VideoID: videoID}); err != nil {
		h.abort(ctx, err)
		return
	}

	if wantsJSON(ctx) {
		ctx.JSON(http.StatusOK, toResponse(sess.Controller.State()))
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/#video-"+url.PathEscape(videoID))
}

// Refresh handles POST /refresh
func (h *VideoHandler) Refresh(ctx *gin.Context) {
	sess, ok := h.session(ctx)
	if !ok {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx.Request.Context(), h.mountWait)
	defer cancel()
	if err := sess.Controller.DispatchAndWait(waitCtx, usecase.Mounted{}); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.abort(ctx, err)
		return
	}

	if wantsJSON(ctx) {
		ctx.JSON(http.StatusOK, toResponse(sess.Controller.State()))
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// State handles GET /api/state
func (h *VideoHandler) State(ctx *gin.Context) {
	sess, ok := h.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, toResponse(sess.Controller.State()))
}

func (h *VideoHandler) session(ctx *gin.Context) (*usecase.Session, bool) {
	sess, ok := middleware.CurrentSession(ctx)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Session not available"})
		return nil, false
	}
	return sess, true
}

func (h *VideoHandler) abort(ctx *gin.Context, err error) {
	logger.GetLogger().WithField("error", err).Error("Error while dispatching view event")
	status := http.StatusInternalServerError
	if errors.Is(err, usecase.ErrControllerStopped) {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{"error": true, "message": "Could not update view", "details": err.Error()})
}

func wantsJSON(ctx *gin.Context) bool {
	return ctx.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func toResponse(s usecase.ViewState) dto.ViewStateResponse {
	return dto.ViewStateResponse{
		Videos:          s.Videos,
		PendingVideoID:  s.PendingVideoID,
		Phase:           string(s.Phase),
		Loading:         s.Loading(),
		SubmitLabel:     s.SubmitLabel(),
		ExpandedVideoID: s.ExpandedVideoID,
		LastError:       s.LastError,
	}
}
