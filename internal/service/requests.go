package service

import (
	"bytes"
	"encoding/json"
)

type CreateCardRequest struct {
	BoardID      int64           `json:"-" validate:"gt=0"`
	Type         string          `json:"type" validate:"omitempty,oneof=text image link video audio file code"`
	Title        string          `json:"title" validate:"max=255"`
	Content      string          `json:"content"`
	SectionID    *int64          `json:"section_id" validate:"omitempty,gt=0"`
	Anonymous    bool            `json:"anonymous"`
	MediaData    json.RawMessage `json:"media_data"`
	PositionData json.RawMessage `json:"position_data"`
	StyleData    json.RawMessage `json:"style_data"`
}

type UpdateCardRequest struct {
	CardID       int64           `json:"-" validate:"gt=0"`
	Title        *string         `json:"title" validate:"omitempty,max=255"`
	Content      *string         `json:"content"`
	Type         *string         `json:"type" validate:"omitempty,oneof=text image link video audio file code"`
	SectionID    *int64          `json:"section_id" validate:"omitempty,gt=0"`
	PositionData json.RawMessage `json:"position_data"`
	StyleData    json.RawMessage `json:"style_data"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction" validate:"required,max=32"`
}

type AddCommentRequest struct {
	CardID   int64  `json:"-" validate:"gt=0"`
	Comment  string `json:"comment" validate:"required"`
	ParentID *int64 `json:"parentid" validate:"omitempty,gt=0"`
}

type CreateSectionRequest struct {
	BoardID  int64   `json:"-" validate:"gt=0"`
	Name     string  `json:"name" validate:"required,max=255"`
	Color    *string `json:"color" validate:"omitempty,max=20"`
	Position int     `json:"position" validate:"gte=0"`
}

// blob turns a raw JSON field into the text stored in the database. An
// absent field or an explicit null yields nil.
func blob(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	s := string(trimmed)
	return &s
}
