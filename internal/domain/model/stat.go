package model

// Common stat types. Any other non-empty tag is accepted.
const (
	StatWordsPerMinute = "mots_par_minute"
	StatErrors         = "erreurs"
	StatPracticeTime   = "temps_pratique"
	StatCourseDone     = "cours_termine"
)

type Stat struct {
	ID         int64   `db:"id_stat" json:"id_stat"`
	Pseudo     string  `db:"pseudo" json:"pseudo_utilisateur"`
	Type       string  `db:"type_stat" json:"type_stat"`
	Valeur     float64 `db:"valeur" json:"valeur"`
	Horodatage int64   `db:"horodatage" json:"horodatage"`
}
