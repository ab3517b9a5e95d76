package models

import (
	"encoding/json"
	"strings"
)

type Layout string

const (
	LayoutWall     Layout = "wall"
	LayoutGrid     Layout = "grid"
	LayoutCanvas   Layout = "canvas"
	LayoutStream   Layout = "stream"
	LayoutTimeline Layout = "timeline"
)

func (l Layout) Valid() bool {
	switch l {
	case LayoutWall, LayoutGrid, LayoutCanvas, LayoutStream, LayoutTimeline:
		return true
	}
	return false
}

const (
	CardTypeText  = "text"
	CardTypeImage = "image"
	CardTypeLink  = "link"
	CardTypeVideo = "video"
	CardTypeAudio = "audio"
	CardTypeFile  = "file"
	CardTypeCode  = "code"

	CardStatusDeleted = 0
	CardStatusActive  = 1
)

type Board struct {
	ID           int64   `json:"id" db:"id"`
	CourseID     int64   `json:"course" db:"course_id"`
	CmID         int64   `json:"cmid" db:"cm_id"`
	ContextID    int64   `json:"contextid" db:"context_id"`
	Name         string  `json:"name" db:"name"`
	Intro        string  `json:"intro" db:"intro"`
	IntroFormat  int     `json:"introformat" db:"intro_format"`
	Layout       Layout  `json:"layout" db:"layout"`
	ThemeConfig  *string `json:"theme_config" db:"theme_config"`
	Settings     *string `json:"settings" db:"settings"`
	TimeCreated  int64   `json:"timecreated" db:"timecreated"`
	TimeModified int64   `json:"timemodified" db:"timemodified"`
}

// ThemeConfigJSON returns the stored theme blob, "{}" when unset.
func (b *Board) ThemeConfigJSON() string {
	return blobOrEmptyObject(b.ThemeConfig)
}

// SettingsJSON returns the stored settings blob, "{}" when unset.
func (b *Board) SettingsJSON() string {
	return blobOrEmptyObject(b.Settings)
}

func blobOrEmptyObject(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "{}"
	}
	return *s
}

type Card struct {
	ID           int64   `json:"id" db:"id"`
	BoardID      int64   `json:"boardid" db:"board_id"`
	UserID       int64   `json:"userid" db:"user_id"`
	SectionID    *int64  `json:"section_id,omitempty" db:"section_id"`
	Type         string  `json:"type" db:"type"`
	Title        string  `json:"title" db:"title"`
	Content      string  `json:"content" db:"content"`
	MediaData    *string `json:"media_data,omitempty" db:"media_data"`
	PositionData *string `json:"position_data,omitempty" db:"position_data"`
	StyleData    *string `json:"style_data,omitempty" db:"style_data"`
	Status       int     `json:"status" db:"status"`
	Anonymous    bool    `json:"anonymous" db:"anonymous"`
	TimeCreated  int64   `json:"timecreated" db:"timecreated"`
	TimeModified int64   `json:"timemodified" db:"timemodified"`
}

func (c *Card) Active() bool {
	return c.Status == CardStatusActive
}

// Media decodes media_data. Missing or malformed blobs yield nil.
func (c *Card) Media() *MediaData {
	if c.MediaData == nil || *c.MediaData == "" {
		return nil
	}
	var media MediaData
	if err := json.Unmarshal([]byte(*c.MediaData), &media); err != nil {
		return nil
	}
	return &media
}

// BoardUpdate carries the instance fields an administrator may change
// after provisioning. Nil fields are left untouched.
type BoardUpdate struct {
	Name   *string
	Intro  *string
	Layout *Layout
}

// CardUpdate carries the fields of a partial card update. Nil fields are
// left untouched.
type CardUpdate struct {
	Title        *string
	Content      *string
	Type         *string
	SectionID    *int64
	MediaData    *string
	PositionData *string
	StyleData    *string
}

func (u CardUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Type == nil && u.SectionID == nil &&
		u.MediaData == nil && u.PositionData == nil && u.StyleData == nil
}

type MediaData struct {
	URL        string `json:"url"`
	ObjectName string `json:"objectname"`
	FileName   string `json:"filename"`
	MimeType   string `json:"mimetype"`
	FileSize   int64  `json:"filesize"`
}

type Section struct {
	ID          int64   `json:"id" db:"id"`
	BoardID     int64   `json:"boardid" db:"board_id"`
	Name        string  `json:"name" db:"name"`
	Color       *string `json:"color,omitempty" db:"color"`
	Position    int     `json:"position" db:"position"`
	TimeCreated int64   `json:"timecreated" db:"timecreated"`
}

type Reaction struct {
	ID          int64  `json:"id" db:"id"`
	CardID      int64  `json:"-" db:"card_id"`
	UserID      int64  `json:"userid" db:"user_id"`
	Reaction    string `json:"reaction" db:"reaction"`
	TimeCreated int64  `json:"timecreated" db:"timecreated"`
}

type Comment struct {
	ID           int64  `json:"id" db:"id"`
	CardID       int64  `json:"cardid" db:"card_id"`
	UserID       int64  `json:"userid" db:"user_id"`
	ParentID     *int64 `json:"parentid,omitempty" db:"parent_id"`
	Comment      string `json:"comment" db:"comment"`
	TimeCreated  int64  `json:"timecreated" db:"timecreated"`
	TimeModified int64  `json:"timemodified" db:"timemodified"`
}

type User struct {
	ID        int64  `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FirstName string `json:"firstname" db:"first_name"`
	LastName  string `json:"lastname" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PublicUser is the projection of a card author exposed to other users.
type PublicUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	FullName  string `json:"fullname"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
	}
}
