package services

import "progression-engine/models"

func strRef(s string) *string { return &s }

// DefaultCatalog is the stock achievement set seeded at startup. Codes are
// derived from names by SeedCatalog.
func DefaultCatalog() []models.Achievement {
	return []models.Achievement{
		// Tasks
		{Name: "First Step", Description: "Complete your first task", Category: models.CategoryTasks, Type: models.AchievementMilestone, Metric: models.MetricTasksCompleted, Requirement: 1, PointsReward: 10, Rarity: models.RarityCommon},
		{Name: "Task Warrior", Description: "Complete 10 tasks", Category: models.CategoryTasks, Type: models.AchievementCumulative, Metric: models.MetricTasksCompleted, Requirement: 10, PointsReward: 50, BadgeID: strRef("task-warrior"), Rarity: models.RarityCommon},
		{Name: "Task Master", Description: "Complete 100 tasks", Category: models.CategoryTasks, Type: models.AchievementCumulative, Metric: models.MetricTasksCompleted, Requirement: 100, PointsReward: 250, BadgeID: strRef("task-master"), Rarity: models.RarityRare},
		{Name: "Task Legend", Description: "Complete 1000 tasks", Category: models.CategoryTasks, Type: models.AchievementCumulative, Metric: models.MetricTasksCompleted, Requirement: 1000, PointsReward: 1000, BadgeID: strRef("task-legend"), Rarity: models.RarityLegendary},

		// Pomodoro
		{Name: "Focused", Description: "Finish your first Pomodoro session", Category: models.CategoryPomodoro, Type: models.AchievementMilestone, Metric: models.MetricPomodorosCompleted, Requirement: 1, PointsReward: 10, Rarity: models.RarityCommon},
		{Name: "Pomodoro Pro", Description: "Finish 50 Pomodoro sessions", Category: models.CategoryPomodoro, Type: models.AchievementCumulative, Metric: models.MetricPomodorosCompleted, Requirement: 50, PointsReward: 150, BadgeID: strRef("pomodoro-pro"), Rarity: models.RarityUncommon},
		{Name: "Deep Work", Description: "Log 1000 minutes of focus time", Category: models.CategoryPomodoro, Type: models.AchievementCumulative, Metric: models.MetricPomodoroMinutes, Requirement: 1000, PointsReward: 200, BadgeID: strRef("deep-work"), Rarity: models.RarityRare},

		// DSA
		{Name: "Problem Solver", Description: "Solve your first DSA question", Category: models.CategoryDSA, Type: models.AchievementMilestone, Metric: models.MetricDSASolved, Requirement: 1, PointsReward: 10, Rarity: models.RarityCommon},
		{Name: "Algorithm Adept", Description: "Solve 50 DSA questions", Category: models.CategoryDSA, Type: models.AchievementCumulative, Metric: models.MetricDSASolved, Requirement: 50, PointsReward: 200, BadgeID: strRef("algorithm-adept"), Rarity: models.RarityUncommon},
		{Name: "Code Ninja", Description: "Solve 250 DSA questions", Category: models.CategoryDSA, Type: models.AchievementCumulative, Metric: models.MetricDSASolved, Requirement: 250, PointsReward: 750, BadgeID: strRef("code-ninja"), Rarity: models.RarityEpic},

		// Social
		{Name: "Team Player", Description: "Join your first workspace", Category: models.CategorySocial, Type: models.AchievementMilestone, Metric: models.MetricWorkspaces, Requirement: 1, PointsReward: 20, Rarity: models.RarityCommon},
		{Name: "Chatterbox", Description: "Send 100 chat messages", Category: models.CategorySocial, Type: models.AchievementCumulative, Metric: models.MetricChatMessages, Requirement: 100, PointsReward: 50, Rarity: models.RarityUncommon},

		// Streaks
		{Name: "Week Streak", Description: "Stay active 7 days in a row", Category: models.CategoryStreak, Type: models.AchievementStreak, Metric: models.MetricCurrentStreak, Requirement: 7, PointsReward: 100, BadgeID: strRef("week-streak"), Rarity: models.RarityUncommon},
		{Name: "Month Streak", Description: "Stay active 30 days in a row", Category: models.CategoryStreak, Type: models.AchievementStreak, Metric: models.MetricLongestStreak, Requirement: 30, PointsReward: 500, BadgeID: strRef("month-streak"), Rarity: models.RarityEpic},

		// Levels
		{Name: "Rising Star", Description: "Reach level 5", Category: models.CategoryLevel, Type: models.AchievementMilestone, Metric: models.MetricLevel, Requirement: 5, PointsReward: 100, Rarity: models.RarityUncommon},
		{Name: "Veteran", Description: "Reach level 20", Category: models.CategoryLevel, Type: models.AchievementMilestone, Metric: models.MetricLevel, Requirement: 20, PointsReward: 500, BadgeID: strRef("veteran"), Rarity: models.RarityEpic},
		{Name: "Point Collector", Description: "Hold 10000 points", Category: models.CategoryLevel, Type: models.AchievementCumulative, Metric: models.MetricPoints, Requirement: 10000, PointsReward: 250, Rarity: models.RarityRare},

		// Secret
		{Name: "Early Bird", Description: "Get something done before 6 AM", Category: models.CategorySpecial, Type: models.AchievementRareEvent, Metric: models.MetricEarlyBird, Requirement: 1, PointsReward: 50, BadgeID: strRef("early-bird"), Rarity: models.RarityRare, IsSecret: true},
		{Name: "Night Owl", Description: "Get something done after 10 PM", Category: models.CategorySpecial, Type: models.AchievementRareEvent, Metric: models.MetricNightOwl, Requirement: 1, PointsReward: 50, BadgeID: strRef("night-owl"), Rarity: models.RarityRare, IsSecret: true},
		{Name: "Weekend Warrior", Description: "Complete 5 tasks on weekends", Category: models.CategorySpecial, Type: models.AchievementRareEvent, Metric: models.MetricWeekendTasks, Requirement: 5, PointsReward: 75, BadgeID: strRef("weekend-warrior"), Rarity: models.RarityUncommon, IsSecret: true},
	}
}
