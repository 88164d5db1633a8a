package model

// Setting is a key/value pair editable from the admin area.
type Setting struct {
	Key   string `gorm:"primaryKey;size:191"`
	Value string `gorm:"not null"`
}
