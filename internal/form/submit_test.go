package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/internal/common"
	"recipebox/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUploader struct {
	// presets
	Results []UploadResult
	Err     error

	// recorded
	Calls    int
	Received [][]StagedImage
}

func (f *fakeUploader) UploadAll(ctx context.Context, images []StagedImage) ([]UploadResult, error) {
	f.Calls++
	f.Received = append(f.Received, images)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Results, nil
}

type fakePersistence struct {
	// presets
	CreateID  string
	CreateErr error
	UpdateErr error

	// recorded
	CreatedUserID  string
	CreatedData    *Data
	UpdatedID      string
	UpdatedData    *Data
	UpdatedCleanup []string
}

func (f *fakePersistence) CreateRecord(ctx context.Context, userID string, data *Data) (string, error) {
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.CreatedUserID = userID
	f.CreatedData = data.Clone()
	return f.CreateID, nil
}

func (f *fakePersistence) UpdateRecord(ctx context.Context, id string, data *Data, imagesToCleanup []string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.UpdatedID = id
	f.UpdatedData = data.Clone()
	f.UpdatedCleanup = imagesToCleanup
	return nil
}

func TestSubmit_RequiresAuthenticatedUser(t *testing.T) {
	up := &fakeUploader{}
	s := NewSession(testLogger(), up, &fakePersistence{}, "")

	_, err := s.Submit(context.Background(), validData())

	assert.ErrorIs(t, err, common.ErrAuthRequired)
	assert.Equal(t, 0, up.Calls, "no work may happen before the auth check")
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmit_ValidationFailureReturnsToIdle(t *testing.T) {
	up := &fakeUploader{}
	s := NewSession(testLogger(), up, &fakePersistence{}, "user-1")

	d := validData()
	d.Title = ""

	_, err := s.Submit(context.Background(), d)

	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, up.Calls, "validation errors must never touch the network")
}

func TestSubmit_UploadFailureLeavesStagingIntact(t *testing.T) {
	boom := errors.New("connection reset")
	up := &fakeUploader{Err: boom}
	s := NewSession(testLogger(), up, &fakePersistence{}, "user-1")

	d := validData()
	d.MainImage = ""
	s.Staging().SetLocalImage(MainImagePath, "file:///main.jpg", common.BucketItemImages)

	_, err := s.Submit(context.Background(), d)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, s.State())
	assert.True(t, s.Staging().HasLocalImage(MainImagePath), "staged images must survive a failed batch for retry")
}

func TestSubmit_Create_SplicesURLsAndClearsStaging(t *testing.T) {
	// form with a staged main image and one staged instruction image
	d := validData()
	d.MainImage = ""

	pers := &fakePersistence{CreateID: "recipe-42"}
	up := &fakeUploader{Results: []UploadResult{
		{FieldPath: InstructionImagePath(0), RemoteURL: "https://cdn/instruction-images/step.jpg", Bucket: common.BucketInstructionImages, ObjectPath: "step.jpg"},
		{FieldPath: MainImagePath, RemoteURL: "https://cdn/item-images/main.jpg", Bucket: common.BucketItemImages, ObjectPath: "main.jpg"},
	}}
	s := NewSession(testLogger(), up, pers, "user-1")
	s.Staging().SetLocalImage(MainImagePath, "file:///main.jpg", common.BucketItemImages)
	s.Staging().SetLocalImage(InstructionImagePath(0), "file:///step.jpg", common.BucketInstructionImages)

	id, err := s.Submit(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "recipe-42", id)
	assert.Equal(t, StateSucceeded, s.State())

	require.Equal(t, 1, up.Calls)
	assert.Len(t, up.Received[0], 2, "exactly the two staged images are uploaded")

	require.NotNil(t, pers.CreatedData)
	assert.Equal(t, "user-1", pers.CreatedUserID)
	assert.Equal(t, "https://cdn/item-images/main.jpg", pers.CreatedData.MainImage)
	assert.Equal(t, "https://cdn/instruction-images/step.jpg", pers.CreatedData.Instructions[0].ImageURL)
	assert.Equal(t, "", pers.CreatedData.Instructions[1].ImageURL)

	assert.Equal(t, 0, s.Staging().Len(), "staging is cleared after success")
}

func TestSubmit_PayloadNeverCarriesPlaceholder(t *testing.T) {
	d := validData()
	d.MainImage = ""

	pers := &fakePersistence{CreateID: "recipe-1"}
	up := &fakeUploader{Results: []UploadResult{
		{FieldPath: MainImagePath, RemoteURL: "https://cdn/item-images/m.jpg", Bucket: common.BucketItemImages, ObjectPath: "m.jpg"},
	}}
	s := NewSession(testLogger(), up, pers, "user-1")
	s.Staging().SetLocalImage(MainImagePath, "file:///m.jpg", common.BucketItemImages)

	_, err := s.Submit(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/item-images/m.jpg", pers.CreatedData.MainImage,
		"the persisted value is the uploaded URL, not any stand-in")
}

func TestSubmit_MissingMainImageAfterUploadAborts(t *testing.T) {
	// Staged main image passes validation, but the batch yields no result
	// for it (e.g. the store returned an empty set). Persistence must not
	// run with an empty main image.
	d := validData()
	d.MainImage = ""

	pers := &fakePersistence{CreateID: "recipe-1"}
	up := &fakeUploader{Results: nil}
	s := NewSession(testLogger(), up, pers, "user-1")
	s.Staging().SetLocalImage(MainImagePath, "file:///m.jpg", common.BucketItemImages)

	_, err := s.Submit(context.Background(), d)

	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, StateFailed, s.State())
	assert.Nil(t, pers.CreatedData, "persistence must not be reached")
	assert.True(t, s.Staging().HasLocalImage(MainImagePath), "staging is untouched for retry")
}

func TestSubmit_PersistenceFailureKeepsStaging(t *testing.T) {
	failure := errors.New("row write failed")
	d := validData()
	d.MainImage = ""

	pers := &fakePersistence{CreateErr: failure}
	up := &fakeUploader{Results: []UploadResult{
		{FieldPath: MainImagePath, RemoteURL: "https://cdn/item-images/m.jpg", Bucket: common.BucketItemImages, ObjectPath: "m.jpg"},
	}}
	s := NewSession(testLogger(), up, pers, "user-1")
	s.Staging().SetLocalImage(MainImagePath, "file:///m.jpg", common.BucketItemImages)

	_, err := s.Submit(context.Background(), d)

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 1, s.Staging().Len(), "no premature clear on persistence failure")
	assert.True(t, s.Staging().HasLocalImage(MainImagePath))
}

func TestSubmit_EditMode_ReplacedImageGoesToCleanup(t *testing.T) {
	initial := validData()
	initial.Instructions[1].ImageURL = "https://cdn/instruction-images/old.jpg"

	pers := &fakePersistence{}
	up := &fakeUploader{Results: []UploadResult{
		{FieldPath: InstructionImagePath(1), RemoteURL: "https://cdn/instruction-images/new.jpg", Bucket: common.BucketInstructionImages, ObjectPath: "new.jpg"},
	}}
	s := NewEditSession(testLogger(), up, pers, "user-1", "recipe-7", initial)
	s.Staging().SetLocalImage(InstructionImagePath(1), "file:///new.jpg", common.BucketInstructionImages)

	d := initial.Clone()
	d.Instructions[1].ImageURL = "" // replacement pending in staging

	id, err := s.Submit(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "recipe-7", id)
	assert.Equal(t, "recipe-7", pers.UpdatedID)
	assert.Equal(t, "https://cdn/instruction-images/new.jpg", pers.UpdatedData.Instructions[1].ImageURL)
	assert.Contains(t, pers.UpdatedCleanup, "https://cdn/instruction-images/old.jpg")
}

func TestSubmit_EditMode_RemovedImageGoesToCleanup(t *testing.T) {
	initial := validData()
	initial.Instructions[0].ImageURL = "https://cdn/instruction-images/gone.jpg"

	pers := &fakePersistence{}
	up := &fakeUploader{}
	s := NewEditSession(testLogger(), up, pers, "user-1", "recipe-7", initial)

	d := initial.Clone()
	d.Instructions[0].ImageURL = "" // removed, no staged replacement

	_, err := s.Submit(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/instruction-images/gone.jpg"}, pers.UpdatedCleanup)
}

func TestSubmit_EditMode_DeletedRowImageGoesToCleanup(t *testing.T) {
	initial := validData()
	initial.Instructions = append(initial.Instructions, Instruction{
		Content:  "serve",
		ImageURL: "https://cdn/instruction-images/serve.jpg",
	})

	pers := &fakePersistence{}
	up := &fakeUploader{}
	s := NewEditSession(testLogger(), up, pers, "user-1", "recipe-7", initial)

	d := initial.Clone()
	s.DeleteInstruction(d, 2)

	_, err := s.Submit(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/instruction-images/serve.jpg"}, pers.UpdatedCleanup)
}

func TestSubmit_EditMode_UntouchedPersistedURLsStay(t *testing.T) {
	initial := validData()
	initial.Instructions[0].ImageURL = "https://cdn/instruction-images/keep.jpg"

	pers := &fakePersistence{}
	up := &fakeUploader{}
	s := NewEditSession(testLogger(), up, pers, "user-1", "recipe-7", initial)

	_, err := s.Submit(context.Background(), initial.Clone())

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/instruction-images/keep.jpg", pers.UpdatedData.Instructions[0].ImageURL)
	assert.Empty(t, pers.UpdatedCleanup)
}

func TestDeleteInstruction_SplicesPayloadAndReindexesStaging(t *testing.T) {
	s := NewSession(testLogger(), &fakeUploader{}, &fakePersistence{}, "user-1")

	d := validData()
	d.Instructions = []Instruction{
		{Content: "chop"},
		{Content: "fry"},
		{Content: "serve"},
	}
	s.Staging().SetLocalImage(InstructionImagePath(2), "file:///serve.jpg", common.BucketInstructionImages)

	s.DeleteInstruction(d, 1)

	require.Len(t, d.Instructions, 2)
	assert.Equal(t, "serve", d.Instructions[1].Content)
	assert.True(t, s.Staging().HasLocalImage(InstructionImagePath(1)),
		"staged association must follow the shifted row")
	assert.False(t, s.Staging().HasLocalImage(InstructionImagePath(2)))

	// out-of-range delete is a no-op
	s.DeleteInstruction(d, 99)
	assert.Len(t, d.Instructions, 2)
}
