package form

import (
	"context"

	"recipebox/internal/common"
	"recipebox/internal/logging"
)

// UploadResult reports one successfully transferred staged image. Bucket
// and ObjectPath identify the stored object; RemoteURL is what gets spliced
// into the payload at FieldPath.
type UploadResult struct {
	FieldPath  string
	RemoteURL  string
	Bucket     common.Bucket
	ObjectPath string
}

// Uploader drains a batch of staged images. Implementations guarantee that
// on error no object uploaded during the failed batch remains in the store
// (best-effort compensation), and that the staging source is untouched.
type Uploader interface {
	UploadAll(ctx context.Context, images []StagedImage) ([]UploadResult, error)
}

// Persistence is the record-store collaborator. Payloads passed in are
// fully resolved: every image field holds a remote URL or "".
// imagesToCleanup lists remote URLs orphaned by an update; the collaborator
// deletes them after the row write commits.
type Persistence interface {
	CreateRecord(ctx context.Context, userID string, data *Data) (string, error)
	UpdateRecord(ctx context.Context, id string, data *Data, imagesToCleanup []string) error
}

// State of a submission attempt.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateUploading
	StatePersisting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateUploading:
		return "uploading"
	case StatePersisting:
		return "persisting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session coordinates one recipe form: it owns the staging store and drives
// submit attempts through validate → upload → reconcile → persist. A
// session serves a single writer; concurrent submits are prevented by the
// caller (the UI blocks resubmission while a submit is in flight).
type Session struct {
	log         logging.Logger
	staging     *Staging
	uploader    Uploader
	persistence Persistence

	userID   string
	recipeID string // empty in create mode
	initial  *Data  // loaded values, edit mode only

	state State
}

// NewSession creates a create-mode session for the given acting user.
func NewSession(log logging.Logger, uploader Uploader, persistence Persistence, userID string) *Session {
	return &Session{
		log:         log,
		staging:     NewStaging(),
		uploader:    uploader,
		persistence: persistence,
		userID:      userID,
	}
}

// NewEditSession creates an edit-mode session over an existing record.
// initial is cloned and diffed against at submit time to collect orphaned
// image URLs.
func NewEditSession(log logging.Logger, uploader Uploader, persistence Persistence, userID, recipeID string, initial *Data) *Session {
	s := NewSession(log, uploader, persistence, userID)
	s.recipeID = recipeID
	s.initial = initial.Clone()
	return s
}

// Staging exposes the session's staging store to the form UI.
func (s *Session) Staging() *Staging {
	return s.staging
}

// State returns the state reached by the most recent submit attempt.
func (s *Session) State() State {
	return s.state
}

// DeleteInstruction removes the instruction row at index i from the payload
// and shifts trailing staged image associations down in lockstep.
func (s *Session) DeleteInstruction(d *Data, i int) {
	if i < 0 || i >= len(d.Instructions) {
		return
	}
	d.Instructions = append(d.Instructions[:i], d.Instructions[i+1:]...)
	s.staging.RemoveInstruction(i)
}

// Submit runs one submission attempt and returns the created or updated
// record id. On any error the staged images stay intact, so a retry is a
// fresh Submit with the same session.
//
// Errors wrap exactly one of common.ErrAuthRequired, common.ErrValidation,
// common.ErrUpload, common.ErrPersistence.
func (s *Session) Submit(ctx context.Context, data *Data) (string, error) {
	if s.userID == "" {
		return "", common.ErrAuthRequired
	}

	s.state = StateValidating
	if err := Validate(data, s.staging); err != nil {
		s.state = StateIdle
		return "", err
	}

	s.state = StateUploading
	results, err := s.uploader.UploadAll(ctx, s.staging.Staged())
	if err != nil {
		s.state = StateFailed
		return "", err
	}

	for _, r := range results {
		if !data.SetImageURL(r.FieldPath, r.RemoteURL) {
			// Stale path: the row was deleted after staging. The object is
			// orphaned; report it rather than guessing a new home.
			s.log.Warn(ctx, "upload result has no field to receive it",
				"field_path", r.FieldPath, "url", r.RemoteURL)
		}
	}

	// Every image field is now a real URL or empty. The main image must not
	// be empty; staging is left alone so the user can retry.
	if data.MainImage == "" {
		s.state = StateFailed
		return "", ValidationErrors{MainImagePath: "main image is required"}
	}

	s.state = StatePersisting
	id := s.recipeID
	if s.recipeID == "" {
		id, err = s.persistence.CreateRecord(ctx, s.userID, data)
	} else {
		err = s.persistence.UpdateRecord(ctx, s.recipeID, data, s.cleanupList(data, results))
	}
	if err != nil {
		s.state = StateFailed
		// Uploads from this attempt are not rolled back; surface them so an
		// operator can reap the orphans.
		for _, r := range results {
			s.log.Error(ctx, "persist failed after upload, object orphaned",
				"bucket", r.Bucket, "path", r.ObjectPath)
		}
		return "", err
	}

	s.state = StateSucceeded
	s.staging.ClearAll()
	return id, nil
}

// cleanupList collects remote URLs the update makes unreachable: images
// replaced by a freshly uploaded one, images removed without replacement,
// and images of instruction rows that were deleted. Create mode has no
// initial values and returns nil.
func (s *Session) cleanupList(data *Data, results []UploadResult) []string {
	if s.initial == nil {
		return nil
	}

	var cleanup []string

	for _, r := range results {
		old, ok := s.initial.ImageURL(r.FieldPath)
		if ok && old != "" && old != r.RemoteURL {
			cleanup = append(cleanup, old)
		}
	}

	for i, ins := range s.initial.Instructions {
		if ins.ImageURL == "" {
			continue
		}
		if i >= len(data.Instructions) {
			// Row deleted outright.
			cleanup = append(cleanup, ins.ImageURL)
			continue
		}
		if data.Instructions[i].ImageURL == "" && !s.staging.HasLocalImage(InstructionImagePath(i)) {
			// Image removed, no replacement pending.
			cleanup = append(cleanup, ins.ImageURL)
		}
	}

	return cleanup
}
