package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/config"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/schedule"
	"github.com/tutorhub/tutorhub-back/internal/session"
)

// CreateSessionRequest is the body for one-off scheduling.
type CreateSessionRequest struct {
	ClassID        uuid.UUID `json:"class_id" binding:"required"`
	LessonIDs      []string  `json:"lesson_ids"`
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" binding:"required"`
	SessionType    string    `json:"session_type"`
}

// CreateSession godoc
// @Summary      Schedule a one-off session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body  CreateSessionRequest  true  "Session info"
// @Success      201   {object} session.Derived
// @Failure      400   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions [post]
func (a *API) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	if !req.ScheduledEnd.After(req.ScheduledStart) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "scheduled_end must be after scheduled_start"})
		return
	}

	sessionType := models.SessionType(req.SessionType)
	if req.SessionType == "" {
		sessionType = models.SessionTypeNative
	}
	if !sessionType.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown session type"})
		return
	}

	sess := models.Session{
		ID:             uuid.New(),
		ClassID:        req.ClassID,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		RoomName:       schedule.NewRoomName(req.ClassID, req.LessonIDs, req.ScheduledStart),
		SessionType:    sessionType,
		Status:         models.SessionStatusScheduled,
	}
	sess.SetLessons(req.LessonIDs)

	if err := a.Store.InsertSession(c.Request.Context(), &sess); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Derive(&sess, a.Clock.Now()))
}

// CreateRecurringRequest is the body for recurrence expansion.
type CreateRecurringRequest struct {
	ClassID     uuid.UUID `json:"class_id" binding:"required"`
	LessonIDs   []string  `json:"lesson_ids"`
	Days        []int     `json:"days" binding:"required"` // 0=Sunday .. 6=Saturday
	StartTime   string    `json:"start_time" binding:"required"` // "15:04"
	EndTime     string    `json:"end_time" binding:"required"`
	AnchorDate  time.Time `json:"anchor_date" binding:"required"`
	Count       int       `json:"count"`
	Until       time.Time `json:"until"`
	SessionType string    `json:"session_type"`
}

// CreateRecurringSessions godoc
// @Summary      Expand a recurrence rule into sessions
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body  CreateRecurringRequest  true  "Recurrence rule"
// @Success      201   {object} map[string]interface{}
// @Failure      400   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/recurring [post]
func (a *API) CreateRecurringSessions(c *gin.Context) {
	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	start, err1 := time.Parse("15:04", req.StartTime)
	end, err2 := time.Parse("15:04", req.EndTime)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start_time and end_time must be HH:MM"})
		return
	}

	days := make([]time.Weekday, 0, len(req.Days))
	for _, d := range req.Days {
		if d < 0 || d > 6 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "days must be 0..6"})
			return
		}
		days = append(days, time.Weekday(d))
	}

	sessionType := models.SessionType(req.SessionType)
	if req.SessionType == "" {
		sessionType = models.SessionTypeNative
	}
	if !sessionType.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown session type"})
		return
	}

	rule := schedule.Rule{
		ClassID:     req.ClassID,
		LessonIDs:   req.LessonIDs,
		Days:        days,
		Start:       schedule.TimeOfDay{Hour: start.Hour(), Minute: start.Minute()},
		End:         schedule.TimeOfDay{Hour: end.Hour(), Minute: end.Minute()},
		Count:       req.Count,
		Until:       req.Until,
		SessionType: sessionType,
	}

	sessions, anchorID, err := schedule.Expand(rule, req.AnchorDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := a.Store.InsertSessions(c.Request.Context(), sessions); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"recurrence_parent_id": anchorID,
		"count":                len(sessions),
	})
}

// GetSession godoc
// @Summary      Get a session with derived status
// @Tags         sessions
// @Produce      json
// @Param        id   path  string  true  "Session ID"
// @Success      200  {object} session.Derived
// @Failure      404  {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [get]
func (a *API) GetSession(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	// Status promotion is computed, not written back; reads stay cheap.
	c.JSON(http.StatusOK, session.Derive(sess, a.Clock.Now()))
}

// ListSessions godoc
// @Summary      List sessions overlapping a time range
// @Tags         sessions
// @Produce      json
// @Param        from  query  string  true  "RFC3339 start"
// @Param        to    query  string  true  "RFC3339 end"
// @Success      200   {array} session.Derived
// @Failure      400   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions [get]
func (a *API) ListSessions(c *gin.Context) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "from and to must be RFC3339"})
		return
	}

	sessions, err := a.Store.ListSessionsByTimeRange(c.Request.Context(), from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a.deriveAll(sessions))
}

// ListClassSessions godoc
// @Summary      List a class's sessions
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Class ID"
// @Success      200 {array} session.Derived
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{id}/sessions [get]
func (a *API) ListClassSessions(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid class id"})
		return
	}
	sessions, err := a.Store.ListSessionsByClass(c.Request.Context(), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a.deriveAll(sessions))
}

// PatchSession godoc
// @Summary      Edit a scheduled session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Session ID"
// @Param        body  body  models.SessionPatch  true  "Fields to change"
// @Success      200   {object} session.Derived
// @Failure      409   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [patch]
func (a *API) PatchSession(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}

	var patch models.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}

	if err := session.ApplyEdit(sess, patch, a.Clock.Now()); err != nil {
		respondErr(c, err)
		return
	}

	fields := map[string]interface{}{
		"scheduled_start": sess.ScheduledStart,
		"scheduled_end":   sess.ScheduledEnd,
		"lesson_ids":      sess.LessonIDs,
	}
	if err := a.Store.PatchSession(c.Request.Context(), sess.ID, fields); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Derive(sess, a.Clock.Now()))
}

// CancelSession godoc
// @Summary      Cancel a scheduled session
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200 {object} session.Derived
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/cancel [post]
func (a *API) CancelSession(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}

	if err := session.Cancel(sess, a.Clock.Now()); err != nil {
		respondErr(c, err)
		return
	}

	// Persist before replying: joins must observe the cancellation.
	fields := map[string]interface{}{"status": sess.Status, "is_live": false}
	if err := a.Store.PatchSession(c.Request.Context(), sess.ID, fields); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Derive(sess, a.Clock.Now()))
}

// CompleteSession godoc
// @Summary      End a session
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200 {object} session.Derived
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/complete [post]
func (a *API) CompleteSession(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}

	if err := session.Complete(sess, a.Clock.Now()); err != nil {
		respondErr(c, err)
		return
	}

	fields := map[string]interface{}{
		"status":       sess.Status,
		"is_live":      false,
		"completed_at": sess.CompletedAt,
	}
	if err := a.Store.PatchSession(c.Request.Context(), sess.ID, fields); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Derive(sess, a.Clock.Now()))
}

// RescheduleRequest re-materializes a cancelled recurring instance.
type RescheduleRequest struct {
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" binding:"required"`
}

// RescheduleSession godoc
// @Summary      Reschedule a cancelled recurring instance
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Session ID"
// @Param        body  body  RescheduleRequest  true  "New times"
// @Success      201   {object} session.Derived
// @Failure      409   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/reschedule [post]
func (a *API) RescheduleSession(c *gin.Context) {
	old, ok := a.loadSession(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.ScheduledEnd.After(req.ScheduledStart) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid time window"})
		return
	}

	if old.Status != models.SessionStatusCancelled || !old.IsRecurring {
		respondErr(c, errs.NewInvalidTransition(string(old.Status), "reschedule"))
		return
	}

	// Relink policy: retain the original anchor or start a fresh lineage.
	var parent *uuid.UUID
	if a.Cfg.RecurrenceRelink == config.RelinkRetain && old.RecurrenceParentID != nil {
		p := *old.RecurrenceParentID
		parent = &p
	} else {
		p := uuid.New()
		parent = &p
	}

	replacement := models.Session{
		ID:                 uuid.New(),
		ClassID:            old.ClassID,
		LessonIDs:          old.LessonIDs,
		ScheduledStart:     req.ScheduledStart,
		ScheduledEnd:       req.ScheduledEnd,
		RoomName:           schedule.NewRoomName(old.ClassID, old.Lessons(), req.ScheduledStart),
		SessionType:        old.SessionType,
		Status:             models.SessionStatusScheduled,
		IsRecurring:        true,
		RecurrenceParentID: parent,
	}
	if err := a.Store.InsertSession(c.Request.Context(), &replacement); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Derive(&replacement, a.Clock.Now()))
}

// CancelFollowing godoc
// @Summary      Cancel this and following recurring instances
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200 {object} map[string]interface{}
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/cancel-following [post]
func (a *API) CancelFollowing(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	if sess.RecurrenceParentID == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Session is not recurring"})
		return
	}

	from := sess.ScheduledStart
	siblings, err := a.Store.ListSessionsByRecurrence(c.Request.Context(), *sess.RecurrenceParentID, &from)
	if err != nil {
		respondErr(c, err)
		return
	}

	now := a.Clock.Now()
	cancelled := 0
	for i := range siblings {
		s := &siblings[i]
		if err := session.Cancel(s, now); err != nil {
			continue // already started or terminal; leave it alone
		}
		fields := map[string]interface{}{"status": s.Status, "is_live": false}
		if err := a.Store.PatchSession(c.Request.Context(), s.ID, fields); err != nil {
			respondErr(c, err)
			return
		}
		cancelled++
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (a *API) loadSession(c *gin.Context) (*models.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid session id"})
		return nil, false
	}
	sess, err := a.Store.GetSession(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return sess, true
}

func (a *API) deriveAll(sessions []models.Session) []session.Derived {
	now := a.Clock.Now()
	out := make([]session.Derived, 0, len(sessions))
	for i := range sessions {
		out = append(out, session.Derive(&sessions[i], now))
	}
	return out
}
