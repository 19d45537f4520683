package model

// TableInfo is one row of SQLite's PRAGMA table_list.
type TableInfo struct {
	Schema       string `json:"schema" db:"schema"`
	Name         string `json:"name"   db:"name"`
	Type         string `json:"type"   db:"type"`
	Columns      int    `json:"ncol"   db:"ncol"`
	WithoutRowID bool   `json:"wr"     db:"wr"`
	Strict       bool   `json:"strict" db:"strict"`
}
