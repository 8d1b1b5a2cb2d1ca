package domain

import "time"

// Selection records the HS code chosen for a machinery item in a pratica,
// together with the separately entered duty and VAT percentages.
type Selection struct {
	ID             string    `db:"id"              json:"id"`
	PraticaID      string    `db:"pratica_id"      json:"pratica_id"`
	MachineryID    *string   `db:"machinery_id"    json:"machinery_id,omitempty"`
	HSCode         string    `db:"hs_code"         json:"hs_code"`
	Description    string    `db:"description"     json:"description"`
	Confidence     *float64  `db:"confidence"      json:"confidence,omitempty"`
	DutyRate       float64   `db:"duty_rate"       json:"duty_rate"`
	VATRate        float64   `db:"vat_rate"        json:"vat_rate"`
	LexiconVersion string    `db:"lexicon_version" json:"lexicon_version"`
	SelectedBy     string    `db:"selected_by"     json:"selected_by,omitempty"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
