package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"progression-engine/middleware"
	"progression-engine/models"
	"progression-engine/services"
)

func parseLeaderboardType(s string) (models.LeaderboardType, bool) {
	t := models.LeaderboardType(strings.ToUpper(s))
	for _, known := range models.LeaderboardTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func parsePeriod(s string) (models.Period, bool) {
	p := models.Period(strings.ToUpper(s))
	for _, known := range models.Periods {
		if p == known {
			return p, true
		}
	}
	return "", false
}

func setupLeaderboardRoutes(router fiber.Router, engine *services.Engine) {
	router.Get("/leaderboards/:type/:period", func(c *fiber.Ctx) error {
		lbType, ok := parseLeaderboardType(c.Params("type"))
		if !ok {
			return badRequest(c, "unknown leaderboard type", nil)
		}
		period, ok := parsePeriod(c.Params("period"))
		if !ok {
			return badRequest(c, "unknown period", nil)
		}
		limit, _ := strconv.Atoi(c.Query("limit", "10"))

		entries, err := engine.Leaderboards.Top(c.UserContext(), lbType, period, limit)
		if err != nil {
			return respondError(c, err, "failed to get leaderboard")
		}
		me, err := engine.Leaderboards.UserRank(c.UserContext(), middleware.UserID(c), lbType, period)
		if err != nil {
			return respondError(c, err, "failed to get user rank")
		}
		return c.JSON(fiber.Map{
			"leaderboard_type": lbType,
			"period":           period,
			"entries":          entries,
			"me":               me,
		})
	})
}
