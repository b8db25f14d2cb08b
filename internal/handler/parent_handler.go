package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-progress-api/internal/dto"
	"github.com/noah-isme/edu-progress-api/internal/middleware"
	"github.com/noah-isme/edu-progress-api/pkg/response"
)

type childReports interface {
	ChildCourses(ctx context.Context, parentID, childID string) ([]dto.ChildCourse, error)
	ChildHistory(ctx context.Context, parentID, childID, courseID string) (*dto.StudentHistory, error)
}

// ParentHandler serves the read-only views parents have of their children.
type ParentHandler struct {
	service childReports
}

// NewParentHandler constructs the handler.
func NewParentHandler(service childReports) *ParentHandler {
	return &ParentHandler{service: service}
}

// ChildCourses godoc
// @Summary Courses of a linked child with stored progress
// @Tags Parents
// @Produce json
// @Param childId path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /parents/children/{childId}/courses [get]
func (h *ParentHandler) ChildCourses(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	childID, ok := pathParam(c, "childId")
	if !ok {
		return
	}
	courses, err := h.service.ChildCourses(c.Request.Context(), claims.UserID, childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Child courses", courses, middleware.ResponseMeta(c))
}

// ChildProgress godoc
// @Summary Detailed history of a linked child in one course
// @Tags Parents
// @Produce json
// @Param childId path string true "Child ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /parents/children/{childId}/courses/{courseId}/progress [get]
func (h *ParentHandler) ChildProgress(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	childID, ok := pathParam(c, "childId")
	if !ok {
		return
	}
	courseID, ok := pathParam(c, "courseId")
	if !ok {
		return
	}
	history, err := h.service.ChildHistory(c.Request.Context(), claims.UserID, childID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Child progress", history, middleware.ResponseMeta(c))
}
