package model

import "time"

// LeaderboardEntry is one user's best time on a challenge.
type LeaderboardEntry struct {
	Rank          int       `db:"-" json:"rang"`
	Pseudo        string    `db:"pseudo" json:"pseudo_utilisateur"`
	TempsReussite float64   `db:"temps_reussite" json:"temps_reussite"`
	DateReussite  time.Time `db:"date_reussite" json:"date_reussite"`
}
