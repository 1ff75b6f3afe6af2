package models

import "time"

// Attachment is the record of a binary object attached to a task. The record
// and the stored object have independent lifecycles: deleting one does not
// delete the other unless the caller performs both steps.
type Attachment struct {
	// ID is unique within the owning task.
	ID string

	FileName string

	// FileURL is the retrieval locator resolved at upload time.
	FileURL string

	// FileSize is the object size in bytes.
	FileSize int64

	UploadedAt time.Time
}
