package vote

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Type is the voter's stance on a prediction
type Type string

const (
	TypeAgree    Type = "agree"
	TypeDisagree Type = "disagree"
)

func (t Type) Valid() bool {
	return t == TypeAgree || t == TypeDisagree
}

func (t Type) String() string {
	return string(t)
}

// Vote is one anonymous voter's stance. Natural key: (PredictionID, VoterID).
type Vote struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PredictionID uuid.UUID `db:"prediction_id" json:"prediction_id"`
	VoterID      string    `db:"voter_id" json:"-"`
	VoteType     Type      `db:"vote_type" json:"vote_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Stats aggregates the votes of one prediction
type Stats struct {
	AgreeCount          int     `json:"agree_count"`
	DisagreeCount       int     `json:"disagree_count"`
	TotalVotes          int     `json:"total_votes"`
	AgreementPercentage float64 `json:"agreement_percentage"`
}

// NewStats derives totals and the agreement percentage (one decimal, 0 when there are no votes)
func NewStats(agree, disagree int) Stats {
	total := agree + disagree
	var pct float64
	if total > 0 {
		pct = math.Round(float64(agree)/float64(total)*1000) / 10
	}
	return Stats{
		AgreeCount:          agree,
		DisagreeCount:       disagree,
		TotalVotes:          total,
		AgreementPercentage: pct,
	}
}
