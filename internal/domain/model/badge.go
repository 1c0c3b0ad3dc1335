package model

import "time"

type Badge struct {
	ID          int64  `db:"id_badge" json:"id_badge"`
	Titre       string `db:"titre" json:"titre_badge"`
	Description string `db:"description" json:"description_badge"`
	CheminImg   string `db:"chemin_img" json:"chemin_img_badge"`
}

type UserBadge struct {
	Badge
	Pseudo        string    `db:"pseudo" json:"pseudo_utilisateur"`
	DateObtention time.Time `db:"date_obtention" json:"date_obtention"`
}
