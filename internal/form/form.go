// Package form implements the deferred multi-image form pipeline behind the
// recipe create/edit flows: a per-session staging store for picked-but-not-
// yet-uploaded images, field-path reindexing when instruction rows move,
// staged-aware validation, and the submission coordinator that uploads,
// reconciles URLs into the payload and hands it to persistence.
package form

// Ingredient is one row of the ordered ingredient list.
type Ingredient struct {
	Value string `json:"value"`
}

// Instruction is one step of the ordered instruction list. ImageURL is
// empty when the step has no image, otherwise it holds a remote URL.
type Instruction struct {
	Content  string `json:"content"`
	ImageURL string `json:"image-url"`
}

// Data is the structured recipe payload owned by a single form session.
// Image fields hold either a real remote URL or "" — never a local handle
// or placeholder.
type Data struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	MainImage    string        `json:"main_image"`
	CategoryID   *int64        `json:"category_id"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []Instruction `json:"instructions"`
}

// Clone returns a deep copy. Edit sessions keep a clone of the loaded
// values to diff against at submit time.
func (d *Data) Clone() *Data {
	c := *d
	if d.CategoryID != nil {
		id := *d.CategoryID
		c.CategoryID = &id
	}
	c.Ingredients = append([]Ingredient(nil), d.Ingredients...)
	c.Instructions = append([]Instruction(nil), d.Instructions...)
	return &c
}

// ImageURL reads the image value at fieldPath. Returns false for a path
// outside the grammar or an instruction index that is out of range.
func (d *Data) ImageURL(fieldPath string) (string, bool) {
	if fieldPath == MainImagePath {
		return d.MainImage, true
	}
	if i, ok := ParseInstructionImagePath(fieldPath); ok && i < len(d.Instructions) {
		return d.Instructions[i].ImageURL, true
	}
	return "", false
}

// SetImageURL writes url into the image field at fieldPath. An instruction
// index beyond the current list is ignored and reported as false: the row
// was deleted after its image was staged, so there is nothing to set.
func (d *Data) SetImageURL(fieldPath, url string) bool {
	if fieldPath == MainImagePath {
		d.MainImage = url
		return true
	}
	if i, ok := ParseInstructionImagePath(fieldPath); ok && i < len(d.Instructions) {
		d.Instructions[i].ImageURL = url
		return true
	}
	return false
}
