package model

import "time"

type Challenge struct {
	ID          int64  `db:"id_defi" json:"id_defi"`
	Titre       string `db:"titre" json:"titre_defi"`
	Description string `db:"description" json:"description_defi"`
}

type ChallengeCompletion struct {
	ID            int64     `db:"id_reussite" json:"-"`
	ChallengeID   int64     `db:"id_defi" json:"id_defi"`
	Pseudo        string    `db:"pseudo" json:"pseudo_utilisateur"`
	TempsReussite float64   `db:"temps_reussite" json:"temps_reussite"`
	DateReussite  time.Time `db:"date_reussite" json:"date_reussite"`
}

// CompletionOutcome tells the caller whether a submitted time became the stored best.
type CompletionOutcome struct {
	ChallengeCompletion
	Improved bool `json:"amelioration"`
}

type WeeklyChallenge struct {
	Compteur int `db:"compteur" json:"compteur"`
}
