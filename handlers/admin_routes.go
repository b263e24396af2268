package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"progression-engine/models"
	"progression-engine/services"
)

type challengeRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Metric       string    `json:"metric"`
	Requirement  int64     `json:"requirement"`
	PointsReward int64     `json:"points_reward"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TimeLimit    int       `json:"time_limit"`
}

func setupAdminRoutes(router fiber.Router, engine *services.Engine) {
	router.Post("/users", func(c *fiber.Ctx) error {
		var req struct {
			UserID   string `json:"user_id"`
			Username string `json:"username"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.UserID) == "" {
			return badRequest(c, "user_id is required", nil)
		}
		user, err := engine.Users.CreateUser(c.UserContext(), req.UserID, req.Username)
		if err != nil {
			return respondError(c, err, "failed to create user")
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	router.Post("/points/adjust", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Delta  int64  `json:"delta"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.UserID == "" || len(req.Reason) > 255 {
			return badRequest(c, "user_id and a reason of at most 255 characters are required", nil)
		}
		awarded, err := engine.Ledger.AdjustPoints(c.UserContext(), req.UserID, req.Delta, req.Reason)
		if err != nil {
			return respondError(c, err, "failed to adjust points")
		}
		return c.JSON(fiber.Map{"user_id": req.UserID, "delta": awarded})
	})

	router.Post("/challenges", func(c *fiber.Ctx) error {
		var req challengeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.Title == "" || req.Metric == "" {
			return badRequest(c, "title and metric are required", nil)
		}
		challenge := models.Challenge{
			Title:        req.Title,
			Description:  req.Description,
			Type:         models.ChallengeType(strings.ToUpper(req.Type)),
			Metric:       models.Metric(strings.ToUpper(req.Metric)),
			Requirement:  req.Requirement,
			PointsReward: req.PointsReward,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			TimeLimit:    req.TimeLimit,
		}
		if err := engine.Challenges.CreateChallenge(c.UserContext(), &challenge); err != nil {
			return respondError(c, err, "failed to create challenge")
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	router.Get("/challenges", func(c *fiber.Ctx) error {
		challenges, err := engine.Challenges.CurrentChallenges(c.UserContext())
		if err != nil {
			return respondError(c, err, "failed to list challenges")
		}
		return c.JSON(challenges)
	})

	router.Post("/achievements/seed", func(c *fiber.Ctx) error {
		added, err := engine.Achievements.SeedCatalog(c.UserContext(), services.DefaultCatalog())
		if err != nil {
			return respondError(c, err, "failed to seed achievements")
		}
		return c.JSON(fiber.Map{"added": added})
	})

	router.Get("/ledger/audit", func(c *fiber.Ctx) error {
		mismatches, err := engine.Ledger.Audit(c.UserContext())
		if err != nil {
			return respondError(c, err, "failed to audit ledger")
		}
		return c.JSON(fiber.Map{"mismatches": mismatches})
	})

	router.Post("/leaderboards/refresh", func(c *fiber.Ctx) error {
		if err := engine.Leaderboards.RefreshRanks(c.UserContext()); err != nil {
			return respondError(c, err, "failed to refresh ranks")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	router.Get("/settings", func(c *fiber.Ctx) error {
		settings, err := services.LoadGameSettings(c.UserContext(), engine.DB, engine.Settings)
		if err != nil {
			return respondError(c, err, "failed to load settings")
		}
		return c.JSON(settings)
	})

	// Fields missing from the body keep their stored value. The new values
	// apply to engines built after the change, i.e. on restart.
	router.Put("/settings", func(c *fiber.Ctx) error {
		settings, err := services.LoadGameSettings(c.UserContext(), engine.DB, engine.Settings)
		if err != nil {
			return respondError(c, err, "failed to load settings")
		}
		if err := c.BodyParser(&settings); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		saved, err := services.UpdateGameSettings(c.UserContext(), engine.DB, settings)
		if err != nil {
			return respondError(c, err, "failed to update settings")
		}
		return c.JSON(saved)
	})
}
