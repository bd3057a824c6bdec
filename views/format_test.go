package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "Fliserens", Label(WorkPaving))
	assert.Equal(t, "Rens af træterrasse", Label(WorkWoodenDeck))
	assert.Equal(t, "Erhvervskunde", Label(CustomerBusiness))
	assert.Equal(t, "Gutter Cleaning", Label("GUTTER_CLEANING"))
}

func TestDanishDate(t *testing.T) {
	assert.Equal(t, "17. maj 2024", DanishDate("2024-05-17"))
	assert.Equal(t, "1. december 2023", DanishDate("2023-12-01T10:30:00"))
	assert.Equal(t, "3. marts 2025", DanishDate("2025-03-03T08:00:00Z"))
	assert.Equal(t, "soon", DanishDate("soon"))
	assert.Equal(t, "", DanishDate(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate(3, "abc"))
	assert.Equal(t, "æø...", truncate(2, "æøå"))
}
