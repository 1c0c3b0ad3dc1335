package model

type Course struct {
	ID          int64  `db:"id_cours" json:"id_cours"`
	Titre       string `db:"titre" json:"titre_cours"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description_cours"`
	Duree       int    `db:"duree" json:"duree_cours"`
	Difficulte  string `db:"difficulte" json:"difficulte_cours"`
}

// SubCourse ids are numbered per parent course, starting at 1.
type SubCourse struct {
	ParentID  int64  `db:"id_cours_parent" json:"id_cours_parent"`
	ID        int64  `db:"id_sous_cours" json:"id_sous_cours"`
	Titre     string `db:"titre" json:"titre_sous_cours"`
	Contenu   string `db:"contenu" json:"contenu_cours"`
	CheminImg string `db:"chemin_img" json:"chemin_img_sous_cours"`
}
