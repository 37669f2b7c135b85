package forms

import "github.com/SambhavSharma7781/Forms4U-sub000/model"

// TypeChangeAllowed reports whether a question may change answer type in
// place without corrupting answers already collected for it.
//
// Free-text types (short answer, paragraph) are interchangeable: stored
// answers stay plain text either way. Option-backed types (multiple
// choice, checkboxes, dropdown) are interchangeable because options are
// replaced wholesale on every update regardless. Any pairing that
// crosses the two families would leave answers of the wrong shape
// behind, so it is only permitted for questions with no answers yet (the
// reconciler checks the answer count separately).
func TypeChangeAllowed(from, to model.QuestionType) bool {
	switch {
	case from == to:
		return true
	case from.FreeText() && to.FreeText():
		return true
	case from.OptionBacked() && to.OptionBacked():
		return true
	}
	return false
}
