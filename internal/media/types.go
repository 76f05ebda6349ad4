package media

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gamesage/gamesage-backend/pkg/enums"
)

// MediaDTO is the full asset view returned to clients.
type MediaDTO struct {
	ID           uuid.UUID            `json:"id"`
	OwnerType    enums.MediaOwnerType `json:"owner_type"`
	OwnerID      uuid.UUID            `json:"owner_id"`
	URL          string               `json:"url"`
	PublicID     string               `json:"public_id"`
	Folder       string               `json:"folder"`
	Format       string               `json:"format"`
	ResourceType string               `json:"resource_type"`
	FileName     string               `json:"file_name"`
	SizeBytes    int64                `json:"size_bytes"`
	Width        int                  `json:"width"`
	Height       int                  `json:"height"`
	AltText      *string              `json:"alt_text,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// UploadInput describes a new asset attached to a user or a game.
type UploadInput struct {
	OwnerType   enums.MediaOwnerType
	OwnerID     uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
	AltText     *string
}

// UpdateInput carries one of three exclusive changes: a replacement file, an
// owner move, or metadata only.
type UpdateInput struct {
	Body        io.Reader
	FileName    string
	ContentType string
	SizeBytes   int64

	NewOwnerType *enums.MediaOwnerType
	NewOwnerID   *uuid.UUID

	AltText *string
}
