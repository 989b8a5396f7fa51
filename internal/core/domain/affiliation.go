package domain

// NoAffiliation labels the rollup bucket of customers without an affiliation.
const NoAffiliation = "无归属"

// CustomerAffiliation is a referral-source tag owned by the user who created it.
type CustomerAffiliation struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Avatar     *string `json:"avatar"`
	Link       *string `json:"link"`
	SubmitUser string  `json:"submit_user"`
}

// Owner implements Owned.
func (a *CustomerAffiliation) Owner() string { return a.SubmitUser }
