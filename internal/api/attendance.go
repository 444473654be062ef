package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HeartbeatRequest carries an optional client timestamp. Absent, the server
// clock is used.
type HeartbeatRequest struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Heartbeat godoc
// @Summary      Report presence in a session
// @Description  Opens an attendance interval on the first signal and refreshes it afterwards. At-least-once delivery is absorbed.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        id    path  string            true   "Session ID"
// @Param        body  body  HeartbeatRequest  false  "Optional timestamp"
// @Success      200   {object} map[string]string
// @Failure      409   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/heartbeat [post]
func (a *API) Heartbeat(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	studentID := c.GetString("subject")

	var req HeartbeatRequest
	_ = c.ShouldBindJSON(&req)
	ts := a.Clock.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	if err := a.Recorder.Heartbeat(c.Request.Context(), sess, studentID, ts); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// Leave godoc
// @Summary      Leave a session
// @Description  Closes the open attendance interval. Duplicate leaves are no-ops.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        id    path  string            true   "Session ID"
// @Param        body  body  HeartbeatRequest  false  "Optional timestamp"
// @Success      200   {object} map[string]string
// @Failure      404   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/leave [post]
func (a *API) Leave(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}
	studentID := c.GetString("subject")

	var req HeartbeatRequest
	_ = c.ShouldBindJSON(&req)
	ts := a.Clock.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	if err := a.Recorder.Leave(c.Request.Context(), sess, studentID, ts); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// AttendanceSummary godoc
// @Summary      Summarize attendance for a session
// @Description  Classifies every roster member as present, partial or missed.
// @Tags         attendance
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200 {object} models.AttendanceSummary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/attendance [get]
func (a *API) AttendanceSummary(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}

	class, err := a.Store.GetClass(c.Request.Context(), sess.ClassID)
	if err != nil {
		respondErr(c, err)
		return
	}
	roster := make([]string, 0, len(class.Students))
	for _, m := range class.Students {
		roster = append(roster, m.StudentID)
	}

	summary, err := a.Recorder.Summarize(c.Request.Context(), sess, roster)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
