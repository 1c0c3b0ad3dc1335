package model

import "time"

type Exercise struct {
	ID          int64  `db:"id_exercice" json:"id_exercice"`
	Titre       string `db:"titre" json:"titre_exercice"`
	Description string `db:"description" json:"description_exercice"`
}

type ExerciseCompletion struct {
	Exercise
	Pseudo       string    `db:"pseudo" json:"pseudo_utilisateur"`
	Reussi       bool      `db:"reussi" json:"reussi"`
	DateReussite time.Time `db:"date_reussite" json:"date_reussite"`
}
