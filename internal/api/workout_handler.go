// internal/api/workout_handler.go
package api

import (
	"alcyxob/workout-cards/internal/service"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// respondWithServiceError maps service errors to HTTP status codes. Nothing
// about the backend leaks into the response body.
func respondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, "Workout not found")
	default:
		// Keep the cause for the request logger only
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// ListWorkouts godoc
// @Summary List a user's workouts
// @Description Returns every workout of the user, most recently modified first.
// @Tags Workouts
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} domain.Workout
// @Failure 400 {object} gin.H "Blank username"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts/{username} [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// GetWorkout godoc
// @Summary Get a workout
// @Tags Workouts
// @Produce json
// @Param username path string true "Username"
// @Param workoutId path string true "Workout ID"
// @Success 200 {object} domain.Workout
// @Failure 400 {object} gin.H "Blank username or workout ID"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{username}/{workoutId} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	workout, err := h.workoutService.GetWorkout(c.Request.Context(), c.Param("username"), c.Param("workoutId"))
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// CreateWorkout godoc
// @Summary Create a workout
// @Description Stores a new workout. Any id or timestamps in the body are ignored.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param workout body WorkoutRequest true "Workout"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Blank username or invalid body"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts/{username} [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	// Get username from path
	username := c.Param("username")
	if strings.TrimSpace(username) == "" {
		abortWithError(c, http.StatusBadRequest, "Username is required")
		return
	}

	// Bind and validate request body
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Call service; id and timestamps are assigned there
	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), username, req.toDomain())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	// Location points at the new record under whichever prefix was used
	c.Header("Location", strings.TrimSuffix(c.Request.URL.EscapedPath(), "/")+"/"+url.PathEscape(workout.ID))
	c.JSON(http.StatusCreated, workout)
}

// UpdateWorkout godoc
// @Summary Replace a workout
// @Description Overwrites every field except the id and creation date.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param workoutId path string true "Workout ID"
// @Param workout body WorkoutRequest true "Workout"
// @Success 200 {object} domain.Workout
// @Failure 400 {object} gin.H "Blank identifiers or invalid body"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{username}/{workoutId} [put]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	username, workoutID := c.Param("username"), c.Param("workoutId")
	if strings.TrimSpace(username) == "" || strings.TrimSpace(workoutID) == "" {
		abortWithError(c, http.StatusBadRequest, "Username and workout ID are required")
		return
	}

	// Bind and validate request body
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Full replacement: anything omitted from the body is cleared
	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), username, workoutID, req.toDomain())
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// DeleteWorkout godoc
// @Summary Delete a workout
// @Tags Workouts
// @Param username path string true "Username"
// @Param workoutId path string true "Workout ID"
// @Success 204 "Deleted"
// @Failure 400 {object} gin.H "Blank username or workout ID"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{username}/{workoutId} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), c.Param("username"), c.Param("workoutId")); err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
