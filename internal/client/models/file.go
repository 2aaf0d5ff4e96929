package models

// UploadedFile is a file selected by the user for attachment.
type UploadedFile struct {
	Name    string
	Content []byte
}

// FileRef points at a stored object, as returned by the upload endpoint and
// by a transaction's file listing.
type FileRef struct {
	URL string
}
