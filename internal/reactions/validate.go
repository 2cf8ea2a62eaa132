package reactions

import (
	"fmt"
	"regexp"

	"github.com/starford/raido/internal/apperr"
)

// Content kinds that carry reactions.
var contentTypes = map[string]bool{
	"blog":    true,
	"pebbles": true,
}

// Reaction types the API accepts.
var reactionTypes = map[string]bool{
	"party_popper": true,
}

// Slugs allow latin alphanumerics, Hangul syllables, hyphens, and
// underscores.
var slugRe = regexp.MustCompile(`^[a-zA-Z0-9\x{AC00}-\x{D7A3}_-]+$`)

const maxSlugLength = 200

func validateContentType(contentType string) error {
	if !contentTypes[contentType] {
		return fmt.Errorf("%w: content type %q", apperr.ErrInvalidInput, contentType)
	}
	return nil
}

func validateReactionType(reactionType string) error {
	if !reactionTypes[reactionType] {
		return fmt.Errorf("%w: reaction type %q", apperr.ErrInvalidInput, reactionType)
	}
	return nil
}

func validateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength || !slugRe.MatchString(slug) {
		return fmt.Errorf("%w: slug", apperr.ErrInvalidInput)
	}
	return nil
}

func validateAction(action string) error {
	switch action {
	case ActionToggle, ActionAdd, ActionRemove:
		return nil
	}
	return fmt.Errorf("%w: action %q", apperr.ErrInvalidInput, action)
}
