package model

type User struct {
	Pseudo           string `db:"pseudo" json:"pseudo"`
	HashedPassword   string `db:"mot_de_passe" json:"-"` // Not exposed
	Nom              string `db:"nom" json:"nom"`
	Prenom           string `db:"prenom" json:"prenom"`
	Courriel         string `db:"courriel" json:"courriel"`
	EstAdmin         bool   `db:"est_admin" json:"est_admin"`
	CptDefi          int    `db:"cpt_defi" json:"cptDefi"`
	MoyMotsParMinute int    `db:"moy_mots_par_minute" json:"moyMotsParMinute"`
	NumCours         int    `db:"num_cours" json:"numCours"`
	TempsTotal       int    `db:"temps_total" json:"tempsTotal"`
}

// UserPublic is the data-minimised record used on listings and public lookups.
type UserPublic struct {
	Pseudo string `db:"pseudo" json:"pseudo"`
	Nom    string `db:"nom" json:"nom"`
	Prenom string `db:"prenom" json:"prenom"`
}

// UserProfile is the full record returned to authenticated callers.
type UserProfile struct {
	Pseudo           string `json:"pseudo"`
	Nom              string `json:"nom"`
	Prenom           string `json:"prenom"`
	Courriel         string `json:"courriel"`
	EstAdmin         bool   `json:"est_admin"`
	CptDefi          int    `json:"cptDefi"`
	MoyMotsParMinute int    `json:"moyMotsParMinute"`
	NumCours         int    `json:"numCours"`
	TempsTotal       int    `json:"tempsTotal"`
}

func (u *User) Public() UserPublic {
	return UserPublic{Pseudo: u.Pseudo, Nom: u.Nom, Prenom: u.Prenom}
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		Pseudo:           u.Pseudo,
		Nom:              u.Nom,
		Prenom:           u.Prenom,
		Courriel:         u.Courriel,
		EstAdmin:         u.EstAdmin,
		CptDefi:          u.CptDefi,
		MoyMotsParMinute: u.MoyMotsParMinute,
		NumCours:         u.NumCours,
		TempsTotal:       u.TempsTotal,
	}
}

// UserStats mirrors the summary served on /stats/{pseudo}; values are strings on the wire.
type UserStats struct {
	MoyMotsParMinute string `json:"moyMotsParMinute"`
	NumCours         string `json:"numCours"`
	TempsTotal       string `json:"tempsTotal"`
}
