package songs

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// maxTextLen bounds author and title.
	maxTextLen = 120
	// maxCoverBytes is the inclusive cover upload limit (2 MiB).
	maxCoverBytes = 2 * 1024 * 1024
)

var coverMimeRe = regexp.MustCompile(`^image/(jpe?g|png|webp)$`)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError enumerates every offending field of an update, not just
// the first.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid update: " + strings.Join(msgs, "; ")
}

// Update is the normalized changed-field set every payload variant reduces
// to. Nil fields were absent from the request and stay untouched.
type Update struct {
	Author *string `json:"author,omitempty"`
	Title  *string `json:"title,omitempty"`
	Cover  *string `json:"cover,omitempty"`
}

// CoverFile is the binary descriptor of an uploaded cover image.
type CoverFile struct {
	MimeType string
	Size     int64
	Data     io.Reader
}

// UpdatePayload is the tagged union of the two update request shapes. The
// transport layer picks the variant once, from the request content type.
type UpdatePayload interface {
	// validate returns the normalized field set plus, for media updates,
	// the cover awaiting upload.
	validate() (Update, *CoverFile, *ValidationError)
}

// MetadataUpdate is a pure-metadata update; cover, when present, is already
// a URI.
type MetadataUpdate struct {
	Author *string
	Title  *string
	Cover  *string
}

// MediaUpdate carries metadata fields plus a cover image to upload.
type MediaUpdate struct {
	Author *string
	Title  *string
	Cover  CoverFile
}

func (p MetadataUpdate) validate() (Update, *CoverFile, *ValidationError) {
	var fields []FieldError
	validateText(&fields, "author", p.Author)
	validateText(&fields, "title", p.Title)

	if p.Cover != nil {
		if u, err := url.Parse(*p.Cover); err != nil || u.Scheme == "" || u.Host == "" {
			fields = append(fields, FieldError{Field: "cover", Message: "must be a well-formed URI"})
		}
	}

	if len(fields) > 0 {
		return Update{}, nil, &ValidationError{Fields: fields}
	}
	return Update{Author: p.Author, Title: p.Title, Cover: p.Cover}, nil, nil
}

func (p MediaUpdate) validate() (Update, *CoverFile, *ValidationError) {
	var fields []FieldError
	validateText(&fields, "author", p.Author)
	validateText(&fields, "title", p.Title)

	if !coverMimeRe.MatchString(p.Cover.MimeType) {
		fields = append(fields, FieldError{Field: "cover", Message: "must be a jpeg, png or webp image"})
	}
	if p.Cover.Size > maxCoverBytes {
		fields = append(fields, FieldError{Field: "cover", Message: "must not exceed 2 MiB"})
	}

	if len(fields) > 0 {
		return Update{}, nil, &ValidationError{Fields: fields}
	}
	cover := p.Cover
	return Update{Author: p.Author, Title: p.Title}, &cover, nil
}

// validateText applies the rules shared by both payload variants.
func validateText(fields *[]FieldError, name string, value *string) {
	if value == nil {
		return
	}
	if n := utf8.RuneCountInString(*value); n < 1 || n > maxTextLen {
		*fields = append(*fields, FieldError{
			Field:   name,
			Message: fmt.Sprintf("length must be between 1 and %d characters", maxTextLen),
		})
	}
}
