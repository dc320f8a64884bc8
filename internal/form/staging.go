package form

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"recipebox/internal/common"
)

// StagedImage is one image the user picked that has not been uploaded yet.
// LocalURI is an opaque handle to the bytes (filesystem path or URL); it is
// not assumed to survive beyond the current form session.
type StagedImage struct {
	FieldPath   string
	LocalURI    string
	Bucket      common.Bucket
	FileName    string
	ContentType string
}

// Staging holds the session's staged images keyed by field path. It is an
// owned value of a single form session: single writer, no locking.
type Staging struct {
	images map[string]StagedImage
}

func NewStaging() *Staging {
	return &Staging{images: make(map[string]StagedImage)}
}

// SetLocalImage stages (or re-stages, overwriting) the image at fieldPath.
// File name and content type are inferred from the URI's last segment.
func (s *Staging) SetLocalImage(fieldPath, localURI string, bucket common.Bucket) {
	fileName := localURI[strings.LastIndex(localURI, "/")+1:]
	if fileName == "" {
		fileName = fmt.Sprintf("image_%d.jpg", time.Now().UnixMilli())
	}

	ext := "jpg"
	if dot := strings.LastIndex(fileName, "."); dot >= 0 && dot < len(fileName)-1 {
		ext = strings.ToLower(fileName[dot+1:])
	}
	if ext == "jpg" {
		ext = "jpeg"
	}

	s.images[fieldPath] = StagedImage{
		FieldPath:   fieldPath,
		LocalURI:    localURI,
		Bucket:      bucket,
		FileName:    fileName,
		ContentType: "image/" + ext,
	}
}

// ClearLocalImage removes the entry at fieldPath. No-op if absent.
func (s *Staging) ClearLocalImage(fieldPath string) {
	delete(s.images, fieldPath)
}

// ClearAll removes every staged image. Used on form reset and after a
// successful submission.
func (s *Staging) ClearAll() {
	s.images = make(map[string]StagedImage)
}

// HasLocalImage reports whether an image is staged at fieldPath.
func (s *Staging) HasLocalImage(fieldPath string) bool {
	_, ok := s.images[fieldPath]
	return ok
}

// LocalImageURI returns the staged URI at fieldPath for preview rendering.
func (s *Staging) LocalImageURI(fieldPath string) (string, bool) {
	img, ok := s.images[fieldPath]
	return img.LocalURI, ok
}

// Len returns the number of staged images.
func (s *Staging) Len() int {
	return len(s.images)
}

// Staged returns the staged images sorted by field path. The order only
// needs to be stable so upload batches and their progress are repeatable.
func (s *Staging) Staged() []StagedImage {
	out := make([]StagedImage, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldPath < out[j].FieldPath })
	return out
}

// RemoveInstruction keeps staged keys consistent after the instruction row
// at index i is deleted: the entry at i (if any) is dropped and every entry
// with a greater index shifts down by one, ascending so that no not-yet-
// moved entry is overwritten. Already-uploaded remote URLs are untouched;
// they move with the payload's own slice splice.
func (s *Staging) RemoveInstruction(i int) {
	s.ClearLocalImage(InstructionImagePath(i))

	var trailing []int
	for path := range s.images {
		if j, ok := ParseInstructionImagePath(path); ok && j > i {
			trailing = append(trailing, j)
		}
	}
	sort.Ints(trailing)

	for _, j := range trailing {
		img := s.images[InstructionImagePath(j)]
		s.ClearLocalImage(InstructionImagePath(j))
		img.FieldPath = InstructionImagePath(j - 1)
		s.images[img.FieldPath] = img
	}
}
