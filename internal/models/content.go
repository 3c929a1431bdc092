package models

import "fmt"

type ContentType string

const (
	ContentTypeCourse ContentType = "course"
	ContentTypeLesson ContentType = "lesson"
)

func (ct ContentType) String() string {
	return string(ct)
}

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeCourse, ContentTypeLesson:
		return ContentType(s), nil
	default:
		return "", fmt.Errorf("unsupported content type: %q", s)
	}
}

// Subject identifies the piece of content an analysis is about.
type Subject struct {
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
}

func (s Subject) String() string {
	return string(s.ContentType) + "/" + s.ContentID
}

// Content is the extracted view of a course or lesson fetched from the
// content service. Text holds the plain-text body with markup stripped.
type Content struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Text        string      `json:"text"`
}
