// handlers/progression_routes.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"progression-engine/middleware"
	"progression-engine/services"
)

type taskRequest struct {
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
}

type pomodoroRequest struct {
	DurationMinutes int    `json:"duration_minutes"`
	WorkspaceID     string `json:"workspace_id"`
}

type dsaRequest struct {
	QuestionID    string `json:"question_id"`
	QuestionTitle string `json:"question_title"`
	Difficulty    string `json:"difficulty"`
}

// SetupProgressionRoutes registers every route under /s. The gateway
// forwards /api/v1/progress/s/... here.
func SetupProgressionRoutes(app *fiber.App, engine *services.Engine) {
	secured := app.Group("/s", middleware.UserContextMiddleware())
	setupLeaderboardRoutes(secured, engine)
	setupAdminRoutes(secured.Group("/admin", middleware.RequireRole("admin")), engine)

	activity := secured.Group("/activity")

	activity.Post("/tasks", func(c *fiber.Ctx) error {
		var req taskRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.TaskID) == "" {
			return badRequest(c, "task_id is required", nil)
		}
		result, err := engine.Recorder.RecordTaskCompletion(c.UserContext(), middleware.UserID(c), req.TaskID, req.TaskTitle)
		if err != nil {
			return respondError(c, err, "failed to record task completion")
		}
		return respondActivity(c, fiber.StatusCreated, result)
	})

	activity.Post("/pomodoros", func(c *fiber.Ctx) error {
		var req pomodoroRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		result, err := engine.Recorder.RecordPomodoroCompletion(c.UserContext(), middleware.UserID(c), req.DurationMinutes, req.WorkspaceID)
		if err != nil {
			return respondError(c, err, "failed to record pomodoro session")
		}
		return respondActivity(c, fiber.StatusCreated, result)
	})

	activity.Post("/dsa", func(c *fiber.Ctx) error {
		var req dsaRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.QuestionID) == "" {
			return badRequest(c, "question_id is required", nil)
		}
		result, err := engine.Recorder.RecordDSAQuestionCompletion(c.UserContext(), middleware.UserID(c), req.QuestionID, req.QuestionTitle, req.Difficulty)
		if err != nil {
			return respondError(c, err, "failed to record DSA question")
		}
		return respondActivity(c, fiber.StatusCreated, result)
	})

	activity.Post("/login", func(c *fiber.Ctx) error {
		result, err := engine.Recorder.RecordLogin(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to record login")
		}
		return respondActivity(c, fiber.StatusOK, result)
	})

	activity.Post("/workspaces", func(c *fiber.Ctx) error {
		var req struct {
			WorkspaceID string `json:"workspace_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		result, err := engine.Recorder.RecordWorkspaceJoined(c.UserContext(), middleware.UserID(c), req.WorkspaceID)
		if err != nil {
			return respondError(c, err, "failed to record workspace join")
		}
		return respondActivity(c, fiber.StatusOK, result)
	})

	activity.Post("/chat", func(c *fiber.Ctx) error {
		result, err := engine.Recorder.RecordChatMessage(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to record chat message")
		}
		return respondActivity(c, fiber.StatusOK, result)
	})

	user := secured.Group("/user")

	user.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := engine.Stats.GetUserStats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get user stats")
		}
		return c.JSON(stats)
	})

	user.Get("/achievements", func(c *fiber.Ctx) error {
		views, err := engine.Achievements.UserAchievements(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get achievements")
		}
		return c.JSON(views)
	})

	user.Get("/points/history", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		if page < 1 {
			page = 1
		}
		if size < 1 || size > 100 {
			size = 20
		}
		history, err := engine.Ledger.History(c.UserContext(), middleware.UserID(c), size, (page-1)*size)
		if err != nil {
			return respondError(c, err, "failed to get points history")
		}
		return c.JSON(fiber.Map{
			"page":         page,
			"size":         size,
			"transactions": history,
		})
	})

	user.Get("/streaks", func(c *fiber.Ctx) error {
		streaks, err := engine.Streaks.Streaks(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get streaks")
		}
		return c.JSON(streaks)
	})

	user.Get("/challenges", func(c *fiber.Ctx) error {
		rows, err := engine.Challenges.UserChallenges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get challenges")
		}
		return c.JSON(rows)
	})
}

// respondActivity writes an activity result, or 404 when the recorder
// ignored the event because the user does not exist.
func respondActivity(c *fiber.Ctx, status int, result *services.ActivityResult) error {
	if result.User == nil {
		return respondError(c, services.ErrUserNotFound, "user not found")
	}
	return c.Status(status).JSON(result)
}
