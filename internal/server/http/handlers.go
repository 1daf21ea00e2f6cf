package internalhttp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkravets/meetplanner/internal/app"
	"github.com/mkravets/meetplanner/internal/storage"
	log "github.com/sirupsen/logrus"
)

type handlers struct {
	planner *app.App
}

type createMeetingRequest struct {
	OwnerID   string `json:"ownerId" binding:"required"`
	Title     string `json:"title"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

type updateMeetingRequest struct {
	Title     *string `json:"title"`
	Date      *string `json:"date"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) create(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := storage.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := storage.ParseTimeOfDay(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := storage.ParseTimeOfDay(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.planner.Schedule(c.Request.Context(), req.OwnerID, req.Title, date, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meeting": m})
}

func (h *handlers) list(c *gin.Context) {
	var f storage.Filter
	f.OwnerID = c.Query("ownerId")
	f.TitleContains = c.Query("title")
	if s := c.Query("date"); s != "" {
		date, err := storage.ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Date = &date
	}
	if s := c.Query("startTime"); s != "" {
		start, err := storage.ParseTimeOfDay(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.StartTime = &start
	}

	meetings, err := h.planner.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

func (h *handlers) get(c *gin.Context) {
	m, err := h.planner.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": m})
}

func (h *handlers) update(c *gin.Context) {
	var req updateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := app.Patch{Title: req.Title}
	if req.Date != nil {
		date, err := storage.ParseDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.Date = &date
	}
	if req.StartTime != nil {
		start, err := storage.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := storage.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch.EndTime = &end
	}

	m, err := h.planner.Reschedule(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": m})
}

func (h *handlers) remove(c *gin.Context) {
	m, err := h.planner.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting": m})
}

func writeError(c *gin.Context, err error) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
		return
	}
	var conflictErr *app.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Error(), "conflicts": conflictErr.Conflicts})
		return
	}
	if errors.Is(err, storage.ErrNotFoundMeeting) {
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
		return
	}
	log.Errorf("request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
