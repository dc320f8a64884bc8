package common

// Bucket names a destination in the remote object store. The set is closed:
// storage policies (public read, cleanup scoping) are configured per bucket
// on the backend.
type Bucket string

const (
	BucketItemImages        Bucket = "item-images"
	BucketInstructionImages Bucket = "instruction-images"
	BucketUserAvatars       Bucket = "user-avatars"
)
