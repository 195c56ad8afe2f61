package songs

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestMetadataUpdateValidate(t *testing.T) {
	tests := []struct {
		name       string
		payload    MetadataUpdate
		wantFields []string
	}{
		{
			name:    "all fields valid",
			payload: MetadataUpdate{Author: strPtr("Boards of Canada"), Title: strPtr("Roygbiv"), Cover: strPtr("https://cdn.example.com/x.png")},
		},
		{
			name:    "empty update",
			payload: MetadataUpdate{},
		},
		{
			name:       "cover not a uri",
			payload:    MetadataUpdate{Cover: strPtr("not-a-uri")},
			wantFields: []string{"cover"},
		},
		{
			name:       "relative cover uri",
			payload:    MetadataUpdate{Cover: strPtr("/covers/x.png")},
			wantFields: []string{"cover"},
		},
		{
			name:       "empty title",
			payload:    MetadataUpdate{Title: strPtr("")},
			wantFields: []string{"title"},
		},
		{
			name:       "author too long",
			payload:    MetadataUpdate{Author: strPtr(strings.Repeat("a", 121))},
			wantFields: []string{"author"},
		},
		{
			name:    "author at limit",
			payload: MetadataUpdate{Author: strPtr(strings.Repeat("a", 120))},
		},
		{
			name:       "every invalid field reported",
			payload:    MetadataUpdate{Author: strPtr(""), Title: strPtr(strings.Repeat("t", 200)), Cover: strPtr("nope")},
			wantFields: []string{"author", "title", "cover"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			update, cover, verr := tc.payload.validate()
			assertFieldErrors(t, verr, tc.wantFields)
			if verr != nil {
				return
			}
			if cover != nil {
				t.Fatal("metadata update must not produce a cover upload")
			}
			if !equalPtr(update.Author, tc.payload.Author) || !equalPtr(update.Title, tc.payload.Title) || !equalPtr(update.Cover, tc.payload.Cover) {
				t.Fatalf("normalized update %+v does not mirror payload %+v", update, tc.payload)
			}
		})
	}
}

func TestMediaUpdateValidate(t *testing.T) {
	tests := []struct {
		name       string
		cover      CoverFile
		wantFields []string
	}{
		{
			name:  "png within limit",
			cover: CoverFile{MimeType: "image/png", Size: 1024},
		},
		{
			name:  "jpeg variant spelling",
			cover: CoverFile{MimeType: "image/jpg", Size: 1024},
		},
		{
			name:  "webp at exact limit",
			cover: CoverFile{MimeType: "image/webp", Size: 2097152},
		},
		{
			name:       "one byte over limit",
			cover:      CoverFile{MimeType: "image/png", Size: 2097153},
			wantFields: []string{"cover"},
		},
		{
			name:       "gif rejected",
			cover:      CoverFile{MimeType: "image/gif", Size: 1024},
			wantFields: []string{"cover"},
		},
		{
			name:       "mime must match exactly",
			cover:      CoverFile{MimeType: "text/image/png", Size: 1024},
			wantFields: []string{"cover"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := MediaUpdate{Title: strPtr("Teardrop"), Cover: tc.cover}
			update, cover, verr := payload.validate()
			assertFieldErrors(t, verr, tc.wantFields)
			if verr != nil {
				return
			}
			if cover == nil {
				t.Fatal("media update must hand back the cover for upload")
			}
			if update.Cover != nil {
				t.Fatal("cover URI is only known after upload")
			}
		})
	}
}

func TestMediaUpdateSharesTextRules(t *testing.T) {
	payload := MediaUpdate{
		Author: strPtr(strings.Repeat("a", 121)),
		Cover:  CoverFile{MimeType: "image/gif", Size: 1024},
	}

	_, _, verr := payload.validate()
	assertFieldErrors(t, verr, []string{"author", "cover"})
}

func assertFieldErrors(t *testing.T, verr *ValidationError, want []string) {
	t.Helper()

	if len(want) == 0 {
		if verr != nil {
			t.Fatalf("unexpected validation error: %v", verr)
		}
		return
	}

	if verr == nil {
		t.Fatalf("expected validation error on fields %v, got nil", want)
	}
	if len(verr.Fields) != len(want) {
		t.Fatalf("got %d field errors (%v), want %d", len(verr.Fields), verr, len(want))
	}
	for i, name := range want {
		if verr.Fields[i].Field != name {
			t.Errorf("field error %d = %q, want %q", i, verr.Fields[i].Field, name)
		}
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
