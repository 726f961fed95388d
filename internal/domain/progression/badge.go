package progression

// Badge - значок, открываемый при достижении порога очков.
type Badge struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsRequired int    `json:"pointsRequired"`
}

// badges упорядочены по возрастанию порога.
var badges = []Badge{
	{ID: "novice", Name: "Novice Achiever", Description: "Complete your first goal.", PointsRequired: 10},
	{ID: "getter", Name: "Goal Getter", Description: "Earn 50 points.", PointsRequired: 50},
	{ID: "competitor", Name: "Competitor", Description: "Earn 75 points.", PointsRequired: 75},
	{ID: "consistent", Name: "Consistent Learner", Description: "Earn 100 points.", PointsRequired: 100},
	{ID: "master", Name: "Skill Master", Description: "Earn 250 points.", PointsRequired: 250},
	{ID: "virtuoso", Name: "Virtuoso", Description: "Earn 500 points.", PointsRequired: 500},
	{ID: "champion", Name: "Champion", Description: "Earn 1000 points.", PointsRequired: 1000},
}

// Badges возвращает все значки.
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// UnlockedBadges возвращает значки, открытые при данном количестве очков.
func UnlockedBadges(points int) []Badge {
	out := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if points >= b.PointsRequired {
			out = append(out, b)
		}
	}
	return out
}

// NextBadge возвращает ближайший ещё не открытый значок.
func NextBadge(points int) (Badge, bool) {
	for _, b := range badges {
		if points < b.PointsRequired {
			return b, true
		}
	}
	return Badge{}, false
}

// NewlyUnlocked возвращает значки, открытые при переходе from -> to.
// При уменьшении очков список пуст.
func NewlyUnlocked(from, to int) []Badge {
	var out []Badge
	for _, b := range badges {
		if from < b.PointsRequired && to >= b.PointsRequired {
			out = append(out, b)
		}
	}
	return out
}
