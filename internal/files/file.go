// Package files stores binary attachments referenced by documents. Metadata
// lives in the database; blob content lives in a pluggable blob store.
package files

import (
	"time"

	"github.com/google/uuid"
)

// File is the stored metadata of one uploaded blob.
type File struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PageCount   *int      `json:"page_count,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedOn   time.Time `json:"created_on"`
}

// UploadCommand carries an upload's metadata and content.
type UploadCommand struct {
	Name        string
	ContentType string
	Data        []byte
}
