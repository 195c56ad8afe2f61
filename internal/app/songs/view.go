package songs

import (
	"time"

	"github.com/google/uuid"

	"songvault/internal/access"
	"songvault/internal/store"
)

// View is the outward projection of a song for one viewer. The raw
// uploader id and the like-set never leave through it; favorite and edit
// are derived per viewer and never persisted.
type View struct {
	ID         uuid.UUID `json:"id"`
	Author     string    `json:"author"`
	Title      string    `json:"title"`
	Cover      *string   `json:"cover,omitempty"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
	Favorite   bool      `json:"favorite"`
	Edit       bool      `json:"edit"`
}

// ToView converts a stored song into its visible representation for the
// given viewer. Every new song field must be classified public or private
// here; this is the single chokepoint through which songs become visible.
func ToView(song store.Song, viewer access.Viewer) View {
	favorite := false
	for _, id := range song.Likes {
		if id == viewer.ID {
			favorite = true
			break
		}
	}

	return View{
		ID:         song.ID,
		Author:     song.Author,
		Title:      song.Title,
		Cover:      song.Cover,
		UploadedBy: song.Uploader,
		CreatedAt:  song.CreatedAt,
		Favorite:   favorite,
		Edit:       access.CanModify(viewer, song.UploadedBy),
	}
}
