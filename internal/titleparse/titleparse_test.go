package titleparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ParentheticalHash(t *testing.T) {
	p := Parse("The Way of Kings (The Stormlight Archive #1)")
	require.NotNil(t, p)

	assert.Equal(t, "The Stormlight Archive", p.SeriesName)
	assert.Equal(t, 1, p.VolumeNumber)
	assert.Equal(t, "The Way of Kings", p.VolumeName)
}

func TestParse_ParentheticalBook(t *testing.T) {
	p := Parse("Words of Radiance (The Stormlight Archive, Book 2)")
	require.NotNil(t, p)

	assert.Equal(t, "The Stormlight Archive", p.SeriesName)
	assert.Equal(t, 2, p.VolumeNumber)
	assert.Equal(t, "Words of Radiance", p.VolumeName)
}

func TestParse_ParentheticalVol(t *testing.T) {
	tests := []string{
		"Berserk Deluxe (Berserk, Vol. 3)",
		"Berserk Deluxe (Berserk, Volume 3)",
		"Berserk Deluxe (Berserk, Vol 3)",
	}
	for _, title := range tests {
		p := Parse(title)
		require.NotNil(t, p, "title: %s", title)
		assert.Equal(t, "Berserk", p.SeriesName)
		assert.Equal(t, 3, p.VolumeNumber)
		assert.Equal(t, "Berserk Deluxe", p.VolumeName)
	}
}

func TestParse_ParentheticalBare(t *testing.T) {
	p := Parse("A Game of Thrones (A Song of Ice and Fire 1)")
	require.NotNil(t, p)

	assert.Equal(t, "A Song of Ice and Fire", p.SeriesName)
	assert.Equal(t, 1, p.VolumeNumber)
	assert.Equal(t, "A Game of Thrones", p.VolumeName)
}

func TestParse_ParentheticalOnly_NoVolumeName(t *testing.T) {
	// Title that IS just the parenthetical: removing it leaves nothing,
	// which must surface as "no volume name", not an empty string sentinel.
	p := Parse("(Discworld #4)")
	require.NotNil(t, p)

	assert.Equal(t, "Discworld", p.SeriesName)
	assert.Equal(t, 4, p.VolumeNumber)
	assert.Empty(t, p.VolumeName)
}

func TestParse_ColonSeriesFirst(t *testing.T) {
	p := Parse("The Witcher: The Last Wish, Vol. 1")
	require.NotNil(t, p)

	assert.Equal(t, "The Witcher", p.SeriesName)
	assert.Equal(t, 1, p.VolumeNumber)
	assert.Equal(t, "The Last Wish", p.VolumeName)
}

func TestParse_ColonVolumeFirst(t *testing.T) {
	p := Parse("Blue Exorcist, Vol. 5: True Cross")
	require.NotNil(t, p)

	assert.Equal(t, "Blue Exorcist", p.SeriesName)
	assert.Equal(t, 5, p.VolumeNumber)
	assert.Equal(t, "True Cross", p.VolumeName)
}

func TestParse_CommaVol(t *testing.T) {
	p := Parse("Blue Exorcist, Vol. 1")
	require.NotNil(t, p)

	assert.Equal(t, "Blue Exorcist", p.SeriesName)
	assert.Equal(t, 1, p.VolumeNumber)
	assert.Empty(t, p.VolumeName, "comma form has no separate volume name")
}

func TestParse_CommaVariants(t *testing.T) {
	tests := []struct {
		title  string
		series string
		vol    int
	}{
		{"One Piece, Volume 42", "One Piece", 42},
		{"Mistborn, Book 2", "Mistborn", 2},
		{"Fullmetal Alchemist Vol. 7", "Fullmetal Alchemist", 7},
		{"Fullmetal Alchemist Volume 7", "Fullmetal Alchemist", 7},
	}
	for _, tt := range tests {
		p := Parse(tt.title)
		require.NotNil(t, p, "title: %s", tt.title)
		assert.Equal(t, tt.series, p.SeriesName, "title: %s", tt.title)
		assert.Equal(t, tt.vol, p.VolumeNumber, "title: %s", tt.title)
	}
}

func TestParse_DashBookOf(t *testing.T) {
	p := Parse("The Eye of the World - Book 1 of The Wheel of Time")
	require.NotNil(t, p)

	assert.Equal(t, "The Wheel of Time", p.SeriesName)
	assert.Equal(t, 1, p.VolumeNumber)
	assert.Equal(t, "The Eye of the World", p.VolumeName)
}

func TestParse_DashSeriesComma(t *testing.T) {
	p := Parse("The Great Hunt - The Wheel of Time, Book 2")
	require.NotNil(t, p)

	assert.Equal(t, "The Wheel of Time", p.SeriesName)
	assert.Equal(t, 2, p.VolumeNumber)
	assert.Equal(t, "The Great Hunt", p.VolumeName)
}

func TestParse_DashSeriesSpace(t *testing.T) {
	p := Parse("The Dragon Reborn - The Wheel of Time Book 3")
	require.NotNil(t, p)

	assert.Equal(t, "The Wheel of Time", p.SeriesName)
	assert.Equal(t, 3, p.VolumeNumber)
	assert.Equal(t, "The Dragon Reborn", p.VolumeName)
}

func TestParse_BareBookNumber(t *testing.T) {
	p := Parse("Harry Potter Book 4")
	require.NotNil(t, p)

	assert.Equal(t, "Harry Potter", p.SeriesName)
	assert.Equal(t, 4, p.VolumeNumber)
	assert.Empty(t, p.VolumeName)
}

func TestParse_BareBookNumber_ShortPrefixRejected(t *testing.T) {
	// The extracted series candidate must be longer than 2 characters.
	assert.Nil(t, Parse("Go Book 3"))
	assert.Nil(t, Parse("A Book 3"))
}

func TestParse_NoMatch(t *testing.T) {
	assert.Nil(t, Parse("Just A Normal Title"))
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("   "))
	assert.Nil(t, Parse("Project Hail Mary"))
}

func TestParse_CaseInsensitiveKeywords(t *testing.T) {
	p := Parse("one piece, VOL. 9")
	require.NotNil(t, p)

	// Keywords match any case; extracted names keep the input casing.
	assert.Equal(t, "one piece", p.SeriesName)
	assert.Equal(t, 9, p.VolumeNumber)
}

func TestParse_RomanNumeralsNotDispatched(t *testing.T) {
	// Roman-numeral volumes are deliberately not handled by Parse.
	assert.Nil(t, Parse("Final Fantasy, Vol. IV"))
}

func TestParse_PrecedenceParenBeatsComma(t *testing.T) {
	// A title matching both the parenthetical and comma forms must use the
	// parenthetical strategy (it is stricter and carries the volume name).
	p := Parse("Vagabond, Definitive Edition (Vagabond #12)")
	require.NotNil(t, p)

	assert.Equal(t, "Vagabond", p.SeriesName)
	assert.Equal(t, 12, p.VolumeNumber)
	assert.Equal(t, "Vagabond, Definitive Edition", p.VolumeName)
}

func TestNormalizeSeriesName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Stormlight Archive", "Stormlight Archive"},
		{"A Song of   Ice and Fire", "Song of Ice and Fire"},
		{"An Ember in the Ashes", "Ember in the Ashes"},
		{"  One   Piece  ", "One Piece"},
		{"Berserk", "Berserk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSeriesName(tt.in), "input %q", tt.in)
	}
}

func TestAreSeriesSimilar(t *testing.T) {
	assert.True(t, AreSeriesSimilar("one piece", "One Piece"))
	assert.True(t, AreSeriesSimilar("The Stormlight Archive", "Stormlight Archive"))
	assert.True(t, AreSeriesSimilar("Stormlight", "The Stormlight Archive"))
	assert.False(t, AreSeriesSimilar("One Piece", "Two Piece Suits"))
	assert.False(t, AreSeriesSimilar("", "One Piece"))
}

func TestParseVolumeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{"12", 12, true},
		{"IV", 4, true},
		{"viii", 8, true},
		{"X", 10, true},
		{"XI", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseVolumeNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}
