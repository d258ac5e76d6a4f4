package core

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

const (
	DefaultSlugAttempts = 5
	fallbackSlug        = "article"
	slugSuffixLength    = 6
	// maxSlugBaseRunes bounds the slugified title; the suffix comes on top.
	maxSlugBaseRunes = 100
)

// reservedSlugs collide with static routes under /api/articles.
var reservedSlugs = map[string]bool{
	"feed": true,
}

// Slugify turns a title into a lowercase, hyphen separated, URL safe string.
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		// apostrophes are dropped so that "dragon's" becomes "dragons"
		if r == '\'' || r == '’' {
			continue
		}
		pendingHyphen = true
	}

	if b.Len() == 0 {
		return fallbackSlug
	}
	return truncateSlug(b.String(), maxSlugBaseRunes)
}

// truncateSlug cuts slug to at most limit runes, preferring the last hyphen
// boundary so that no word is split.
func truncateSlug(slug string, limit int) string {
	runes := []rune(slug)
	if len(runes) <= limit {
		return slug
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		return cut[:i]
	}
	return cut
}

// SlugChecker reports whether a slug is already used.
type SlugChecker interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// SlugGenerator finds a slug that is free at the time of the check. The
// database unique constraint stays authoritative: callers must be ready to
// get ErrDuplicateSlug from the insert and ask for another candidate.
type SlugGenerator struct {
	checker     SlugChecker
	maxAttempts int
	suffix      func() string
}

func NewSlugGenerator(checker SlugChecker, maxAttempts int) *SlugGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultSlugAttempts
	}
	return &SlugGenerator{
		checker:     checker,
		maxAttempts: maxAttempts,
		suffix:      randomSuffix,
	}
}

func (g *SlugGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns the slugified title when it is free and otherwise tries
// suffixed variants, giving up with ErrSlugUnavailable after maxAttempts checks.
func (g *SlugGenerator) Generate(ctx context.Context, title string) (string, error) {
	base := Slugify(title)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + "-" + g.suffix()
		}
		if reservedSlugs[candidate] {
			continue
		}

		exists, err := g.checker.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", xerrors.New(err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", xerrors.New(ErrSlugUnavailable)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:slugSuffixLength]
}

// Save stores a new article under a generated slug. save is called with each
// candidate; when it reports ErrDuplicateSlug, because another writer took the
// slug after the existence check, a fresh candidate is generated. The number
// of saves is bounded by the same attempt budget as the checks.
func (g *SlugGenerator) Save(ctx context.Context, title string, save func(slug string) error) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		slug, err := g.Generate(ctx, title)
		if err != nil {
			return "", err
		}

		err = save(slug)
		if err == nil {
			return slug, nil
		}
		if !errors.Is(err, ErrDuplicateSlug) {
			return "", xerrors.New(err)
		}
	}

	return "", xerrors.New(ErrSlugUnavailable)
}
