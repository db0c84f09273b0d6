package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	courseapp "github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/interface/middleware"
	"github.com/sandeepkrmehta/lms-backend/pkg/response"
	"github.com/sandeepkrmehta/lms-backend/pkg/validation"
)

type CourseHandler struct {
	Svc    *courseapp.CourseService
	Logger *logrus.Logger
}

func NewCourseHandler(svc *courseapp.CourseService, logger *logrus.Logger) *CourseHandler {
	return &CourseHandler{Svc: svc, Logger: logger}
}

type courseRequest struct {
	Title       string `form:"title" binding:"required,min=3"`
	Description string `form:"description" binding:"required"`
	Category    string `form:"category" binding:"required"`
}

type courseUpdateRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Category    string `form:"category"`
}

type lectureRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
}

func courseSummary(c *entity.Course) gin.H {
	return gin.H{
		"id":                 c.ID,
		"title":              c.Title,
		"description":        c.Description,
		"category":           c.Category,
		"thumbnail_url":      c.ThumbnailURL,
		"created_by":         c.CreatedBy,
		"number_of_lectures": c.NumberOfLectures,
		"created_at":         c.CreatedAt,
		"updated_at":         c.UpdatedAt,
	}
}

func courseDetail(c *entity.Course) gin.H {
	out := courseSummary(c)
	lectures := make([]gin.H, 0, len(c.Lectures))
	for i := range c.Lectures {
		l := &c.Lectures[i]
		lectures = append(lectures, gin.H{
			"id":          l.ID,
			"title":       l.Title,
			"description": l.Description,
			"media_url":   l.MediaURL,
			"position":    l.Position,
		})
	}
	out["lectures"] = lectures
	return out
}

// List GET /api/course/all (public)
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("course list failed")
		response.Error(c, http.StatusInternalServerError, "failed to load courses", nil)
		return
	}
	out := make([]gin.H, 0, len(courses))
	for i := range courses {
		out = append(out, courseSummary(&courses[i]))
	}
	response.Success(c, http.StatusOK, out, "courses")
}

// Get GET /api/course/:id (subscriber gated); returns lectures too.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, courseapp.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, "course not found", nil)
			return
		}
		h.Logger.WithError(err).Error("course lookup failed")
		response.Error(c, http.StatusInternalServerError, "failed to load course", nil)
		return
	}
	response.Success(c, http.StatusOK, courseDetail(course), "course")
}

// Search GET /api/course/search?q=...
func (h *CourseHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("course search failed")
		response.Error(c, http.StatusInternalServerError, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results")
}

// Create POST /api/course (admin, multipart, optional thumbnail)
func (h *CourseHandler) Create(c *gin.Context) {
	claims := middleware.MustClaims(c)
	var req courseRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	course, err := h.Svc.Create(c.Request.Context(), courseapp.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		h.Logger.WithError(err).Error("course create failed")
		response.Error(c, http.StatusInternalServerError, "failed to create course", nil)
		return
	}

	if fh, err := c.FormFile("thumbnail"); err == nil {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			if updated, err := h.Svc.UploadThumbnail(c.Request.Context(), course.ID, f, fh.Filename, fh.Header.Get("Content-Type")); err == nil {
				course = updated
			} else {
				h.Logger.WithError(err).Warn("thumbnail upload failed")
			}
		}
	}

	response.Success(c, http.StatusCreated, courseSummary(course), "course created")
}

// Update PUT /api/course/:id (admin)
func (h *CourseHandler) Update(c *gin.Context) {
	var req courseUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	course, err := h.Svc.Update(c.Request.Context(), c.Param("id"), courseapp.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, courseapp.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, "course not found", nil)
			return
		}
		h.Logger.WithError(err).Error("course update failed")
		response.Error(c, http.StatusInternalServerError, "failed to update course", nil)
		return
	}

	if fh, err := c.FormFile("thumbnail"); err == nil {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			if updated, err := h.Svc.UploadThumbnail(c.Request.Context(), course.ID, f, fh.Filename, fh.Header.Get("Content-Type")); err == nil {
				course = updated
			} else {
				h.Logger.WithError(err).Warn("thumbnail upload failed")
			}
		}
	}

	response.Success(c, http.StatusOK, courseSummary(course), "course updated")
}

// Delete DELETE /api/course/:id (admin)
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, courseapp.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, "course not found", nil)
			return
		}
		h.Logger.WithError(err).Error("course delete failed")
		response.Error(c, http.StatusInternalServerError, "failed to delete course", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "course deleted")
}

// AddLecture POST /api/course/:id/lecture (admin, multipart, optional media)
func (h *CourseHandler) AddLecture(c *gin.Context) {
	var req lectureRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var (
		media       io.Reader
		filename    string
		contentType string
	)
	if fh, err := c.FormFile("media"); err == nil {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, "unreadable media file", nil)
			return
		}
		defer f.Close()
		media, filename, contentType = f, fh.Filename, fh.Header.Get("Content-Type")
	}

	lecture, err := h.Svc.AddLecture(c.Request.Context(), c.Param("id"), courseapp.LectureInput{
		Title:       req.Title,
		Description: req.Description,
	}, media, filename, contentType)
	if err != nil {
		if errors.Is(err, courseapp.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, "course not found", nil)
			return
		}
		h.Logger.WithError(err).Error("lecture add failed")
		response.Error(c, http.StatusInternalServerError, "failed to add lecture", nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":          lecture.ID,
		"title":       lecture.Title,
		"description": lecture.Description,
		"media_url":   lecture.MediaURL,
		"position":    lecture.Position,
	}, "lecture added")
}

// RemoveLecture DELETE /api/course/:id/lecture/:lectureId (admin)
func (h *CourseHandler) RemoveLecture(c *gin.Context) {
	err := h.Svc.RemoveLecture(c.Request.Context(), c.Param("id"), c.Param("lectureId"))
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"deleted": true}, "lecture removed")
	case errors.Is(err, courseapp.ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "course not found", nil)
	case errors.Is(err, courseapp.ErrLectureNotFound):
		response.Error(c, http.StatusNotFound, "lecture not found", nil)
	default:
		h.Logger.WithError(err).Error("lecture remove failed")
		response.Error(c, http.StatusInternalServerError, "failed to remove lecture", nil)
	}
}
