// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// MediaType is the kind of media an item carries.
type MediaType string

// Supported media types.
const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// ParseMediaType normalizes s; ok is false for anything but image or video.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaImage:
		return MediaImage, true
	case MediaVideo:
		return MediaVideo, true
	}
	return "", false
}

// MatchesContentType reports whether a MIME type belongs to this media type.
// XML based types such as image/svg+xml can carry script and never match.
func (m MediaType) MatchesContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return m != "" && strings.HasPrefix(ct, string(m)+"/") && !strings.HasSuffix(ct, "+xml")
}

// PortfolioItem is a published piece of work.
// Files are media keys such as "uploads/<name>", in display order.
type PortfolioItem struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	MainCategory string    `json:"mainCategory"`
	SubCategory  string    `json:"subCategory"`
	MediaType    MediaType `json:"mediaType"`
	Files        []string  `json:"files"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Cover returns the first file key or "" when the item has none.
func (p PortfolioItem) Cover() string {
	if len(p.Files) == 0 {
		return ""
	}
	return p.Files[0]
}

// ItemDraft is the user-supplied part of a PortfolioItem.
type ItemDraft struct {
	Title        string
	Description  string
	MainCategory string
	SubCategory  string
	MediaType    string
}

// Category groups subcategories under a main category name.
type Category struct {
	ID            string    `json:"_id"`
	MainCategory  string    `json:"mainCategory"`
	SubCategories []string  `json:"subCategories"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasSubCategory reports whether sub is listed, ignoring case.
func (c Category) HasSubCategory(sub string) bool {
	for _, s := range c.SubCategories {
		if strings.EqualFold(s, sub) {
			return true
		}
	}
	return false
}

// ProjectType is the kind of work an inquiry asks for.
type ProjectType string

// Project types offered on the contact form.
const (
	ProjectGraphicDesign  ProjectType = "graphicDesign"
	ProjectWebDevelopment ProjectType = "webDevelopment"
	ProjectBoth           ProjectType = "both"
)

// ProjectTypes lists the accepted project types in display order.
var ProjectTypes = []ProjectType{ProjectGraphicDesign, ProjectWebDevelopment, ProjectBoth} //nolint:gochecknoglobals // fixed enum

// Label returns the human readable name.
func (p ProjectType) Label() string {
	switch p {
	case ProjectGraphicDesign:
		return "Graphic Design"
	case ProjectWebDevelopment:
		return "Web Development"
	case ProjectBoth:
		return "Both"
	}
	return string(p)
}

// Inquiry is a stored contact form submission.
// Deadline is a calendar date formatted as YYYY-MM-DD, empty when not given.
type Inquiry struct {
	ID           string      `json:"_id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	ProjectType  ProjectType `json:"projectType"`
	Budget       string      `json:"budget,omitempty"`
	Deadline     string      `json:"deadline,omitempty"`
	Requirements string      `json:"requirements"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// InquiryDraft is the user-supplied part of an Inquiry.
type InquiryDraft struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ProjectType  string `json:"projectType"`
	Budget       string `json:"budget"`
	Deadline     string `json:"deadline"`
	Requirements string `json:"requirements"`
}

// Sort keys and orders accepted by ItemQuery.
const (
	SortByCreatedAt = "createdAt"
	SortByTitle     = "title"
	SortAsc         = "asc"
	SortDesc        = "desc"
)

// ItemQuery filters and orders portfolio listings. Limit 0 means no limit.
type ItemQuery struct {
	MainCategory string
	SubCategory  string
	Search       string
	SortBy       string
	SortOrder    string
	Limit        int
}
