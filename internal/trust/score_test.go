package trust

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"green-map/internal/models"
)

func makeVotes(igniter, imposter int) []*models.Vote {
	votes := make([]*models.Vote, 0, igniter+imposter)
	locationID := uuid.New()
	for i := 0; i < igniter; i++ {
		votes = append(votes, &models.Vote{
			ID:         uuid.New(),
			LocationID: locationID,
			UserID:     uuid.New(),
			VoteType:   models.VoteIgniter,
		})
	}
	for i := 0; i < imposter; i++ {
		votes = append(votes, &models.Vote{
			ID:         uuid.New(),
			LocationID: locationID,
			UserID:     uuid.New(),
			VoteType:   models.VoteImposter,
		})
	}
	return votes
}

func TestScoreNoVotesDefaultsToFullTrust(t *testing.T) {
	assert.Equal(t, 100, Score(0, 0))
}

func TestScoreRounding(t *testing.T) {
	cases := []struct {
		igniter, imposter, want int
	}{
		{3, 1, 75},
		{1, 1, 50},
		{1, 0, 100},
		{0, 1, 0},
		{2, 1, 67},  // 66.67 rounds up
		{1, 2, 33},  // 33.33 rounds down
		{1, 7, 13},  // 12.5 rounds half up
		{5, 3, 63},  // 62.5 rounds half up
		{99, 1, 99},
	}

	for _, c := range cases {
		got := Score(c.igniter, c.imposter)
		if got != c.want {
			t.Errorf("Score(%d, %d) = %d, want %d", c.igniter, c.imposter, got, c.want)
		}
	}
}

func TestComputeTallies(t *testing.T) {
	agg := Compute(makeVotes(3, 1))

	assert.Equal(t, 3, agg.IgniterVotes)
	assert.Equal(t, 1, agg.ImposterVotes)
	assert.Equal(t, 4, agg.TotalVotes)
	assert.Equal(t, 75, agg.TrustScore)
}

func TestComputeEmptyVoteSet(t *testing.T) {
	agg := Compute(nil)

	assert.Equal(t, 0, agg.TotalVotes)
	assert.Equal(t, 100, agg.TrustScore)
}

func TestComputeTotalAlwaysSumOfTallies(t *testing.T) {
	for igniter := 0; igniter <= 10; igniter++ {
		for imposter := 0; imposter <= 10; imposter++ {
			agg := Compute(makeVotes(igniter, imposter))
			if agg.IgniterVotes+agg.ImposterVotes != agg.TotalVotes {
				t.Fatalf("tally mismatch for (%d,%d): %+v", igniter, imposter, agg)
			}
			if agg.TrustScore < 0 || agg.TrustScore > 100 {
				t.Fatalf("score out of range for (%d,%d): %d", igniter, imposter, agg.TrustScore)
			}
		}
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	votes := makeVotes(7, 4)
	want := Compute(votes)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		rng.Shuffle(len(votes), func(a, b int) { votes[a], votes[b] = votes[b], votes[a] })
		assert.Equal(t, want, Compute(votes))
	}
}
