package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutorhub/tutorhub-back/internal/enroll"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/excel"
	"github.com/tutorhub/tutorhub-back/internal/models"
	"github.com/tutorhub/tutorhub-back/internal/room"
)

// JoinSession godoc
// @Summary      Join a session
// @Description  Checks enrollment, then resolves the session into a native room or the external portal.
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200 {object} room.Placement
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/join [get]
func (a *API) JoinSession(c *gin.Context) {
	sess, ok := a.loadSession(c)
	if !ok {
		return
	}

	// Students must resolve through enrollment; teachers and admins join
	// their own sessions directly.
	if c.GetString("role") == "student" {
		resolution, err := a.Resolver.Resolve(c.Request.Context(), c.GetString("subject"), sess.ClassID)
		if err != nil {
			respondErr(c, err)
			return
		}
		switch resolution.State {
		case enroll.StateResolved:
			// enrolled; fall through to dispatch
		case enroll.StateConflict:
			respondErr(c, errs.ErrEnrollmentMismatch)
			return
		default:
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not enrolled in this class"})
			return
		}
	}

	placement, err := a.Dispatcher.Dispatch(c.Request.Context(), sess)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, placement)
}

// ResolveRoom godoc
// @Summary      Resolve a room name to its session
// @Description  Looks the room up in the store; for historical names falls back to the legacy class/lesson pattern.
// @Tags         rooms
// @Produce      json
// @Param        name  path  string  true  "Room name"
// @Success      200   {object} map[string]interface{}
// @Failure      404   {object} ErrorResponse
// @Security     BearerAuth
// @Router       /rooms/{name} [get]
func (a *API) ResolveRoom(c *gin.Context) {
	name := c.Param("name")

	sess, err := a.Store.GetSessionByRoomName(c.Request.Context(), name)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"session_id": sess.ID, "room_name": sess.RoomName})
		return
	}

	// Legacy fallback only; a parse failure is not fatal and yields the
	// generic strategy.
	if ref, ok := room.ParseLegacyRoomName(name); ok {
		c.JSON(http.StatusOK, gin.H{
			"legacy":    true,
			"class_id":  ref.ClassID,
			"lesson_id": ref.LessonID,
			"room_name": name,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"legacy": true, "room_name": name})
}

// MyClasses godoc
// @Summary      List the caller's classes via dynamic enrollment
// @Tags         enrollment
// @Produce      json
// @Success      200 {array} models.Class
// @Security     BearerAuth
// @Router       /me/classes [get]
func (a *API) MyClasses(c *gin.Context) {
	classes, err := a.Resolver.ResolveDynamic(c.Request.Context(), c.GetString("subject"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if classes == nil {
		classes = []models.Class{}
	}
	c.JSON(http.StatusOK, classes)
}

// ClassRoster godoc
// @Summary      Get a class's explicit roster
// @Tags         enrollment
// @Produce      json
// @Param        id  path  string  true  "Class ID"
// @Success      200 {array} models.ClassStudent
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /classes/{id}/roster [get]
func (a *API) ClassRoster(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid class id"})
		return
	}
	class, err := a.Store.GetClass(c.Request.Context(), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, class.Students)
}

// RosterRequest adds or removes one roster member.
type RosterRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// AddRosterStudent godoc
// @Summary      Add a student to a class roster
// @Tags         enrollment
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "Class ID"
// @Param        body  body  RosterRequest  true  "Student"
// @Success      200   {object} map[string]string
// @Security     BearerAuth
// @Router       /classes/{id}/roster [post]
func (a *API) AddRosterStudent(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid class id"})
		return
	}
	var req RosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	if err := a.Store.AddClassStudent(c.Request.Context(), classID, req.StudentID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student added"})
}

// RemoveRosterStudent godoc
// @Summary      Remove a student from a class roster
// @Tags         enrollment
// @Produce      json
// @Param        id         path  string  true  "Class ID"
// @Param        studentId  path  string  true  "Student ID"
// @Success      200        {object} map[string]string
// @Security     BearerAuth
// @Router       /classes/{id}/roster/{studentId} [delete]
func (a *API) RemoveRosterStudent(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid class id"})
		return
	}
	if err := a.Store.RemoveClassStudent(c.Request.Context(), classID, c.Param("studentId")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student removed"})
}

// ImportTimetable godoc
// @Summary      Import the timetable workbook and materialize sessions
// @Tags         timetable
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /timetable/import [post]
func (a *API) ImportTimetable(c *gin.Context) {
	path := a.Cfg.TimetablePath
	if path == "" {
		path = "timetable.xlsx"
	}

	anchor := a.Clock.Now()
	until := anchor.AddDate(0, 0, 7*excel.DefaultTermWeeks)
	count, err := excel.Import(c.Request.Context(), a.Store, path, anchor, until)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Timetable imported", "count": count})
}
