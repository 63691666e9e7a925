package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

func TestScore(t *testing.T) {
	t.Run("perfect establishment match scores 100", func(t *testing.T) {
		candidate := types.GeocodeCandidate{
			FormattedAddress:  "Ichiran Ramen, 1-22-7 Jinnan, Shibuya City, Tokyo 150-0041, Japan",
			ResultTypes:       []string{"establishment", "restaurant"},
			AddressComponents: 6,
		}
		conf := Score(candidate, "Ichiran Ramen, Shibuya", 1)
		assert.Equal(t, 100, conf.Score)
		assert.Equal(t, types.TierHigh, conf.Tier)
	})

	t.Run("locality-only result is low tier", func(t *testing.T) {
		candidate := types.GeocodeCandidate{
			FormattedAddress:  "Shibuya City, Tokyo, Japan",
			ResultTypes:       []string{"locality", "political"},
			AddressComponents: 2,
		}
		// 10 (locality) + 0 (no name tokens match) + 0 + 0 (many siblings)
		conf := Score(candidate, "that cool bar", 5)
		assert.Equal(t, 10, conf.Score)
		assert.Equal(t, types.TierLow, conf.Tier)
	})

	t.Run("street level with partial name match", func(t *testing.T) {
		candidate := types.GeocodeCandidate{
			FormattedAddress:  "Blue Bottle Street, Kiyosumi, Koto City, Tokyo",
			ResultTypes:       []string{"route"},
			AddressComponents: 4,
		}
		// 25 + round(30*2/3)=20 (blue, bottle match; coffee does not) + 10 + 5
		conf := Score(candidate, "Blue Bottle Coffee, Kiyosumi", 2)
		assert.Equal(t, 60, conf.Score)
		assert.Equal(t, types.TierMedium, conf.Tier)
	})

	t.Run("tier boundaries", func(t *testing.T) {
		assert.Equal(t, types.TierHigh, tierFor(75))
		assert.Equal(t, types.TierMedium, tierFor(74))
		assert.Equal(t, types.TierMedium, tierFor(50))
		assert.Equal(t, types.TierLow, tierFor(49))
		assert.Equal(t, types.TierLow, tierFor(0))
	})
}

func TestNameMatchScore(t *testing.T) {
	t.Run("only the first comma segment is tokenized", func(t *testing.T) {
		// "Shibuya" after the comma must not count as a token.
		score := nameMatchScore("Ichiran, Shibuya, Tokyo", "Ichiran Honten, Fukuoka")
		assert.Equal(t, 30, score)
	})

	t.Run("short tokens are ignored", func(t *testing.T) {
		// "at" and "by" are <= 2 chars and do not qualify.
		score := nameMatchScore("go at by", "anywhere at all")
		assert.Equal(t, 0, score)
	})

	t.Run("zero qualifying tokens contributes zero", func(t *testing.T) {
		assert.Equal(t, 0, nameMatchScore("", "some address"))
	})

	t.Run("monotone in matched tokens", func(t *testing.T) {
		// Adding a matching token never decreases the sub-score.
		one := nameMatchScore("sushi saito", "saito building, minato")
		two := nameMatchScore("sushi saito", "sushi saito, minato")
		assert.GreaterOrEqual(t, two, one)
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, 30, nameMatchScore("ICHIRAN RAMEN", "ichiran ramen, tokyo"))
	})
}

func TestUniquenessScore(t *testing.T) {
	assert.Equal(t, UniquenessSingle, uniquenessScore(1))
	assert.Equal(t, UniquenessFew, uniquenessScore(2))
	assert.Equal(t, UniquenessFew, uniquenessScore(3))
	assert.Equal(t, 0, uniquenessScore(4))
	// Going from a single result to many never increases the sub-score.
	assert.Greater(t, uniquenessScore(1), uniquenessScore(7))
}

func TestAddressScore(t *testing.T) {
	assert.Equal(t, AddressComponentsFull, addressScore(5))
	assert.Equal(t, AddressComponentsFull, addressScore(9))
	assert.Equal(t, AddressComponentsPartial, addressScore(3))
	assert.Equal(t, AddressComponentsPartial, addressScore(4))
	assert.Equal(t, 0, addressScore(2))
}

func TestSpecificityScore(t *testing.T) {
	assert.Equal(t, SpecificityEstablishment, specificityScore([]string{"point_of_interest", "locality"}))
	assert.Equal(t, SpecificityStreet, specificityScore([]string{"street_address"}))
	assert.Equal(t, SpecificityLocality, specificityScore([]string{"neighborhood"}))
	assert.Equal(t, 0, specificityScore([]string{"country"}))
	assert.Equal(t, 0, specificityScore(nil))
}
