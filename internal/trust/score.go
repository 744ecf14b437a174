// Package trust derives a location's trust aggregate from its vote set.
//
// The aggregate is a pure function of the votes: tally the two vote kinds and
// express the igniter share as an integer percentage. A location with no
// votes scores 100 — unvoted locations are presumptively trusted, which is a
// product decision, not a numerical accident.
package trust

import (
	"math"

	"green-map/internal/models"
)

// UnvotedScore is the trust score of a location with no votes at all.
const UnvotedScore = 100

// Score computes the integer trust score for the given tallies using
// round-half-up semantics.
func Score(igniterVotes, imposterVotes int) int {
	total := igniterVotes + imposterVotes
	if total == 0 {
		return UnvotedScore
	}
	return int(math.Round(float64(igniterVotes) / float64(total) * 100))
}

// Compute tallies a location's votes and returns the derived aggregate.
// It has no side effects and is order-independent: any permutation of the
// same vote set yields an identical result.
func Compute(votes []*models.Vote) models.TrustAggregate {
	var igniter, imposter int
	for _, v := range votes {
		switch v.VoteType {
		case models.VoteIgniter:
			igniter++
		case models.VoteImposter:
			imposter++
		}
	}

	return models.TrustAggregate{
		IgniterVotes:  igniter,
		ImposterVotes: imposter,
		TotalVotes:    igniter + imposter,
		TrustScore:    Score(igniter, imposter),
	}
}
