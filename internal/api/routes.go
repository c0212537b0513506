package api

import (
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with recovery, request logging and, when
// origins are configured, CORS.
func NewRouter(log *logger.Logger, corsOrigins []string, workoutService service.WorkoutService) *gin.Engine {
	router := gin.New()
	// Match on the escaped path so an encoded "/" stays inside its segment
	// and is rejected by validation instead of changing the route.
	router.UseRawPath = true
	router.Use(gin.Recovery(), RequestLogger(log))
	if len(corsOrigins) > 0 {
		router.Use(CORS(corsOrigins))
	}
	SetupRoutes(router, workoutService)
	return router
}

func SetupRoutes(
	router *gin.Engine,
	workoutService service.WorkoutService,
) {
	workoutHandler := NewWorkoutHandler(workoutService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Served both at the root and under /api, where the browser client
	// expects it.
	for _, group := range []*gin.RouterGroup{router.Group(""), router.Group("/api")} {
		workouts := group.Group("/workouts")
		{
			// GET /workouts/{username}
			workouts.GET("/:username", workoutHandler.ListWorkouts)
			// POST /workouts/{username}
			workouts.POST("/:username", workoutHandler.CreateWorkout)
			// GET /workouts/{username}/{workoutId}
			workouts.GET("/:username/:workoutId", workoutHandler.GetWorkout)
			// PUT /workouts/{username}/{workoutId}
			workouts.PUT("/:username/:workoutId", workoutHandler.UpdateWorkout)
			// DELETE /workouts/{username}/{workoutId}
			workouts.DELETE("/:username/:workoutId", workoutHandler.DeleteWorkout)
		}
	}
}
