// Package types provides core types used across the evalflow framework.
// This package has ZERO dependencies on other evalflow packages to avoid circular imports.
// All other packages should import types from here.
package types

import "time"

// MediaKind represents a media content kind (modality), as distinct from plain text.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// SourceKind identifies where a media reference points to.
type SourceKind string

const (
	SourceFile     SourceKind = "file"     // path relative to the dataset directory, or absolute
	SourceInline   SourceKind = "inline"   // base64 data carried in the record itself
	SourceUploaded SourceKind = "uploaded" // remote URL produced by an upload service
)

// ImageDetail controls the resolution hint sent with image content.
// It is best-effort: providers that do not understand it have the
// option dropped at dispatch time.
type ImageDetail string

const (
	DetailAuto ImageDetail = "auto"
	DetailLow  ImageDetail = "low"
	DetailHigh ImageDetail = "high"
)

// MediaSource is the origin of a piece of media. Exactly one of the
// location fields is populated, selected by Kind.
type MediaSource struct {
	Kind     SourceKind `json:"kind"`
	Path     string     `json:"path,omitempty"`      // SourceFile
	Data     string     `json:"data,omitempty"`      // SourceInline, base64 encoded
	MimeType string     `json:"mime_type,omitempty"` // SourceInline
	URL      string     `json:"url,omitempty"`       // SourceUploaded
}

// MediaReference is a typed handle to image/audio/video content as authored
// in a dataset record or constructed programmatically. It is immutable once
// constructed; resolution produces a separate ResolvedMedia.
//
// Format is mandatory for audio and video (validated at dispatch time);
// images carry no enumerated format restriction. Detail applies to images
// only and defaults to DetailAuto when empty.
type MediaReference struct {
	Kind   MediaKind   `json:"kind"`
	Source MediaSource `json:"source"`
	Format string      `json:"format,omitempty"`
	Detail ImageDetail `json:"detail,omitempty"`
}

// NewFileReference creates a media reference backed by a file path.
func NewFileReference(kind MediaKind, path string) MediaReference {
	return MediaReference{Kind: kind, Source: MediaSource{Kind: SourceFile, Path: path}}
}

// NewInlineReference creates a media reference backed by base64 data.
func NewInlineReference(kind MediaKind, data, mimeType string) MediaReference {
	return MediaReference{Kind: kind, Source: MediaSource{Kind: SourceInline, Data: data, MimeType: mimeType}}
}

// NewUploadedReference creates a media reference backed by a remote upload URL.
func NewUploadedReference(kind MediaKind, url string) MediaReference {
	return MediaReference{Kind: kind, Source: MediaSource{Kind: SourceUploaded, URL: url}}
}

// WithFormat sets the declared format (mp3, wav, mp4, mpeg, mov, png, ...).
func (r MediaReference) WithFormat(format string) MediaReference {
	r.Format = format
	return r
}

// WithDetail sets the image resolution hint.
func (r MediaReference) WithDetail(detail ImageDetail) MediaReference {
	r.Detail = detail
	return r
}

// DetailOrDefault returns the detail hint, defaulting to auto.
func (r MediaReference) DetailOrDefault() ImageDetail {
	if r.Detail == "" {
		return DetailAuto
	}
	return r.Detail
}

// ResolvedMedia is a MediaReference after path resolution and base64
// decode/validation. Either Bytes or RemoteURL is populated; the dispatcher
// owns it exclusively during a single request's lifetime.
type ResolvedMedia struct {
	Kind      MediaKind `json:"kind"`
	Bytes     []byte    `json:"-"`
	RemoteURL string    `json:"remote_url,omitempty"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`

	// Origin is the authored location (path or URL), kept for log
	// redaction placeholders. "inline" for data-URL sources.
	Origin string `json:"origin,omitempty"`
}

// ContentType discriminates items of a multimodal message.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
)

// ContentItem is one element of a multimodal message: either text or a
// media reference. Item ordering inside a message is significant and is
// preserved exactly through dispatch.
type ContentItem struct {
	Type  ContentType     `json:"type"`
	Text  string          `json:"text,omitempty"`
	Media *MediaReference `json:"media,omitempty"`
}

// NewTextItem creates a text content item.
func NewTextItem(text string) ContentItem {
	return ContentItem{Type: ContentText, Text: text}
}

// NewMediaItem creates a media content item from a reference.
func NewMediaItem(ref MediaReference) ContentItem {
	return ContentItem{Type: ContentType(ref.Kind), Media: &ref}
}

// IsMedia reports whether the item carries media rather than text.
func (c ContentItem) IsMedia() bool { return c.Type != ContentText && c.Media != nil }

// ResolvedContent pairs an authored content item with its resolution
// result. Text items have Media nil. The slice produced for a message
// keeps the authored order.
type ResolvedContent struct {
	Item  ContentItem    `json:"item"`
	Media *ResolvedMedia `json:"media,omitempty"`
}

// UploadResult is what a provider upload API returns for a stored file.
type UploadResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
