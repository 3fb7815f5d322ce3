package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinSplitList(t *testing.T) {
	t.Run("joins with comma space", func(t *testing.T) {
		assert.Equal(t, "a, b, c", JoinList([]string{"a", "b", "c"}))
		assert.Equal(t, "", JoinList(nil))
	})

	t.Run("split trims and drops empties", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, SplitList("a, b , c"))
		assert.Empty(t, SplitList(""))
		assert.Empty(t, SplitList(" , , "))
	})

	t.Run("embedded commas do not round-trip", func(t *testing.T) {
		joined := JoinList([]string{"Acme, Inc", "Beta"})
		assert.Equal(t, []string{"Acme", "Inc", "Beta"}, SplitList(joined))
	})
}

func TestSubmissionFromForm(t *testing.T) {
	form := &ResearchForm{
		CandidateName: "Alice",
		HQCountry:     "Germany",
		Keywords:      []string{"ml", "automation"},
		CloudSupport:  []string{"aws"},
		Notes:         "n/a",
	}

	sub := SubmissionFromForm(form, "sap-se-x1", "SAP SE", "researcher-1")

	assert.Equal(t, "sap-se-x1", sub.CompanyKey)
	assert.Equal(t, "SAP SE", sub.CompanyName)
	assert.Equal(t, "researcher-1", sub.ResearcherID)
	assert.Equal(t, "Alice", sub.CandidateName)
	assert.Equal(t, "ml, automation", sub.Keywords)
	assert.Equal(t, "aws", sub.CloudSupport)
	assert.Equal(t, "n/a", sub.Notes)

	t.Run("Form reconstructs the editable shape", func(t *testing.T) {
		back := sub.Form()
		assert.Equal(t, "Alice", back.CandidateName)
		assert.Equal(t, []string{"ml", "automation"}, back.Keywords)
		assert.Equal(t, []string{"aws"}, back.CloudSupport)
		assert.Empty(t, back.PilotOffers)
	})
}
