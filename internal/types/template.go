package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaceholderSpec positions one text slot on a template image. X and Y are
// percentages (0-100) of the image width/height; FontSize is authored in
// pixels against the 500px reference height.
type PlaceholderSpec struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Alignment  string  `json:"alignment"`
	Color      string  `json:"color"`
}

type CertificateTemplate struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkshopID uuid.UUID `gorm:"type:uuid;index;not null;column:workshop_id" json:"workshop_id"`
	ImageURL   string    `gorm:"not null;column:image_url" json:"image_url"`

	NameX          float64 `gorm:"not null;default:50;column:name_x" json:"name_x"`
	NameY          float64 `gorm:"not null;default:45;column:name_y" json:"name_y"`
	NameFontSize   float64 `gorm:"not null;default:24;column:name_font_size" json:"name_font_size"`
	NameFontFamily string  `gorm:"not null;default:Arial;column:name_font_family" json:"name_font_family"`
	NameAlignment  string  `gorm:"not null;default:center;column:name_alignment" json:"name_alignment"`
	NameColor      string  `gorm:"not null;default:#1a1a2e;column:name_color" json:"name_color"`

	CodeX          float64 `gorm:"not null;default:50;column:code_x" json:"code_x"`
	CodeY          float64 `gorm:"not null;default:70;column:code_y" json:"code_y"`
	CodeFontSize   float64 `gorm:"not null;default:16;column:code_font_size" json:"code_font_size"`
	CodeFontFamily string  `gorm:"not null;default:Courier New;column:code_font_family" json:"code_font_family"`
	CodeAlignment  string  `gorm:"not null;default:center;column:code_alignment" json:"code_alignment"`
	CodeColor      string  `gorm:"not null;default:#333333;column:code_color" json:"code_color"`

	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CertificateTemplate) TableName() string {
	return "certificate_templates"
}

func (t *CertificateTemplate) NamePlaceholder() PlaceholderSpec {
	return PlaceholderSpec{
		X:          t.NameX,
		Y:          t.NameY,
		FontSize:   t.NameFontSize,
		FontFamily: t.NameFontFamily,
		Alignment:  t.NameAlignment,
		Color:      t.NameColor,
	}
}

func (t *CertificateTemplate) CodePlaceholder() PlaceholderSpec {
	return PlaceholderSpec{
		X:          t.CodeX,
		Y:          t.CodeY,
		FontSize:   t.CodeFontSize,
		FontFamily: t.CodeFontFamily,
		Alignment:  t.CodeAlignment,
		Color:      t.CodeColor,
	}
}

// ApplyPlaceholders copies both placeholder groups onto the template row.
func (t *CertificateTemplate) ApplyPlaceholders(name, code PlaceholderSpec) {
	t.NameX = name.X
	t.NameY = name.Y
	t.NameFontSize = name.FontSize
	t.NameFontFamily = name.FontFamily
	t.NameAlignment = name.Alignment
	t.NameColor = name.Color
	t.CodeX = code.X
	t.CodeY = code.Y
	t.CodeFontSize = code.FontSize
	t.CodeFontFamily = code.FontFamily
	t.CodeAlignment = code.Alignment
	t.CodeColor = code.Color
}
