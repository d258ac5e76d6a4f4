package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"How to train your dragon", "how-to-train-your-dragon"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Dragon's  --  fire!!", "dragons-fire"},
		{"Go 1.22 released", "go-1-22-released"},
		{"Ünïcödé Straße", "ünïcödé-straße"},
		{"???", "article"},
		{"", "article"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

type takenSlugs struct {
	taken  map[string]bool
	checks int
}

func (c *takenSlugs) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	c.checks++
	return c.taken[slug], nil
}

type alwaysTaken struct {
	checks int
}

func (c *alwaysTaken) ExistsBySlug(context.Context, string) (bool, error) {
	c.checks++
	return true, nil
}

func TestSlugifyBoundsLength(t *testing.T) {
	word := strings.Repeat("a", 9)
	title := strings.TrimSpace(strings.Repeat(word+" ", 30))

	slug := Slugify(title)
	assert.LessOrEqual(t, utf8.RuneCountInString(slug), maxSlugBaseRunes)
	assert.False(t, strings.HasSuffix(slug, "-"))
	assert.Equal(t, strings.Repeat(word+"-", 9)+word, slug)

	unbroken := Slugify(strings.Repeat("ж", 300))
	assert.Equal(t, maxSlugBaseRunes, utf8.RuneCountInString(unbroken))
}

func fixedSuffixes(suffixes ...string) func() string {
	i := 0
	return func() string {
		s := suffixes[i%len(suffixes)]
		i++
		return s
	}
}

func TestGenerateUsesBaseWhenFree(t *testing.T) {
	g := NewSlugGenerator(&takenSlugs{}, 0)

	slug, err := g.Generate(context.Background(), "How to train your dragon")
	require.NoError(t, err)
	assert.Equal(t, "how-to-train-your-dragon", slug)
	assert.Equal(t, DefaultSlugAttempts, g.MaxAttempts())
}

func TestGenerateAppendsSuffix(t *testing.T) {
	checker := &takenSlugs{taken: map[string]bool{"dragons": true, "dragons-aaaaaa": true}}
	g := NewSlugGenerator(checker, 5)
	g.suffix = fixedSuffixes("aaaaaa", "bbbbbb")

	slug, err := g.Generate(context.Background(), "Dragons")
	require.NoError(t, err)
	assert.Equal(t, "dragons-bbbbbb", slug)
	assert.Equal(t, 3, checker.checks)
}

func TestGenerateSkipsReservedSlugs(t *testing.T) {
	checker := &takenSlugs{}
	g := NewSlugGenerator(checker, 5)
	g.suffix = fixedSuffixes("cccccc")

	slug, err := g.Generate(context.Background(), "Feed")
	require.NoError(t, err)
	assert.Equal(t, "feed-cccccc", slug)
	assert.Equal(t, 1, checker.checks)
}

func TestRandomSuffix(t *testing.T) {
	s := randomSuffix()
	assert.Len(t, s, slugSuffixLength)
	assert.Regexp(t, "^[0-9a-f]+$", s)
}

func TestGenerateIsBounded(t *testing.T) {
	checker := &alwaysTaken{}
	g := NewSlugGenerator(checker, 3)

	_, err := g.Generate(context.Background(), "Dragons")
	assert.True(t, errors.Is(err, ErrSlugUnavailable))
	assert.Equal(t, CategoryInternal, CategoryOf(err))
	assert.Equal(t, 3, checker.checks)
}

func TestSaveRetriesOnDuplicate(t *testing.T) {
	g := NewSlugGenerator(&takenSlugs{}, 5)
	g.suffix = fixedSuffixes("aaaaaa")

	var saved []string
	slug, err := g.Save(context.Background(), "Dragons", func(slug string) error {
		saved = append(saved, slug)
		if len(saved) == 1 {
			return ErrDuplicateSlug
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "dragons", slug)
	assert.Equal(t, []string{"dragons", "dragons"}, saved)
}

func TestSaveIsBounded(t *testing.T) {
	g := NewSlugGenerator(&takenSlugs{}, 4)

	saves := 0
	_, err := g.Save(context.Background(), "Dragons", func(string) error {
		saves++
		return ErrDuplicateSlug
	})
	assert.True(t, errors.Is(err, ErrSlugUnavailable))
	assert.Equal(t, 4, saves)
}

func TestSavePropagatesOtherErrors(t *testing.T) {
	g := NewSlugGenerator(&takenSlugs{}, 4)
	boom := errors.New("boom")

	saves := 0
	_, err := g.Save(context.Background(), "Dragons", func(string) error {
		saves++
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, saves)
}
