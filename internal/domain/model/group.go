package model

type Group struct {
	ID          int64  `db:"id_groupe" json:"id_groupe"`
	Nom         string `db:"nom" json:"nom_groupe"`
	Description string `db:"description" json:"description_groupe"`
}

type Membership struct {
	Pseudo   string `db:"pseudo" json:"pseudo_utilisateur"`
	GroupID  int64  `db:"id_groupe" json:"id_groupe"`
	EstAdmin bool   `db:"est_admin" json:"est_admin"`
}

// MembershipRemoval reports the outcome of removing a member.
type MembershipRemoval struct {
	Detail       string `json:"detail"`
	GroupDeleted bool   `json:"groupe_supprime"`
}
