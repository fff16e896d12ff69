package datamodel

// Archivable marks a row as soft-deletable. Archived rows are excluded from
// every active query but kept for history.
type Archivable struct {
	Archived bool `gorm:"column:archived;not null" json:"archived"`
}

func (a *Archivable) Archive() {
	a.Archived = true
}

func (a Archivable) IsArchived() bool {
	return a.Archived
}

// Versioned is a monotonic counter: 1 on insert, +1 on every mutation.
type Versioned struct {
	Version int64 `gorm:"column:version;not null" json:"version"`
}

func (v *Versioned) Init() {
	v.Version = 1
}
