package model

import "time"

type BoxType string

const (
	TypeImage BoxType = "image"
	TypeAudio BoxType = "audio"
	TypeCode  BoxType = "code"
)

// Valid reports whether t is one of the known box types.
func (t BoxType) Valid() bool {
	switch t {
	case TypeImage, TypeAudio, TypeCode:
		return true
	}
	return false
}

type Box struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Type      BoxType   `json:"type"`
	Code      string    `json:"code,omitempty"`
	FilePath  string    `json:"filePath,omitempty"`
	IsFlagged bool      `json:"isFlagged"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasAsset reports whether the box references a stored binary asset.
func (b Box) HasAsset() bool {
	return b.FilePath != ""
}

type NewBox struct {
	Title    string
	Author   string
	Type     BoxType
	Code     string
	AssetRef string
}

type Stats struct {
	Total     int `json:"total"`
	Flagged   int `json:"flagged"`
	Available int `json:"available"`
}
