package form

import (
	"fmt"
	"sort"
	"strings"

	"recipebox/internal/common"
)

// Limits mirrored from the hosted backend's row constraints.
const (
	MinIngredients  = 2
	MaxIngredients  = 20
	MinInstructions = 2
	MaxInstructions = 20
)

// ImageState is what an image field resolves to at validation time. A field
// whose upload is deferred has no URL yet but is not empty either; modelling
// that as a distinct state keeps placeholder strings out of the payload.
type ImageState int

const (
	ImageEmpty ImageState = iota
	ImageStaged
	ImagePersisted
)

// Satisfied reports whether the state passes a "required" check.
func (s ImageState) Satisfied() bool {
	return s != ImageEmpty
}

// StateOf resolves the image field at fieldPath against the live payload
// value and the session's staging store. A staged image wins over a
// persisted URL: the user picked a replacement.
func StateOf(d *Data, st *Staging, fieldPath string) ImageState {
	if st.HasLocalImage(fieldPath) {
		return ImageStaged
	}
	if url, ok := d.ImageURL(fieldPath); ok && url != "" {
		return ImagePersisted
	}
	return ImageEmpty
}

// ValidationErrors maps field paths to user-facing messages. It wraps
// common.ErrValidation so callers can classify with errors.Is.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("validation error")
	for _, p := range paths {
		fmt.Fprintf(&b, "; %s: %s", p, e[p])
	}
	return b.String()
}

func (e ValidationErrors) Unwrap() error {
	return common.ErrValidation
}

// Validate checks d against the recipe schema, treating staged images as
// present. Returns nil or a ValidationErrors with one message per failing
// field.
func Validate(d *Data, st *Staging) error {
	errs := ValidationErrors{}

	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "title is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = "description is required"
	}
	if !StateOf(d, st, MainImagePath).Satisfied() {
		errs[MainImagePath] = "main image is required"
	}

	switch {
	case len(d.Ingredients) < MinIngredients:
		errs["ingredients"] = "at least two ingredients are required"
	case len(d.Ingredients) > MaxIngredients:
		errs["ingredients"] = fmt.Sprintf("maximum %d ingredients allowed", MaxIngredients)
	}
	for i, ing := range d.Ingredients {
		if strings.TrimSpace(ing.Value) == "" {
			errs[fmt.Sprintf("ingredients.%d.value", i)] = "ingredient cannot be empty"
		}
	}

	switch {
	case len(d.Instructions) < MinInstructions:
		errs["instructions"] = "at least two instructions are required"
	case len(d.Instructions) > MaxInstructions:
		errs["instructions"] = fmt.Sprintf("maximum %d instructions allowed", MaxInstructions)
	}
	for i, ins := range d.Instructions {
		if strings.TrimSpace(ins.Content) == "" {
			errs[fmt.Sprintf("instructions.%d.content", i)] = "instruction content is required"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
