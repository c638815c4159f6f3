package model

// Item is the domain model for a todo entry.
// ID 0 marks an unsaved draft; the server assigns real ids.
type Item struct {
	ID        int    `json:"id" yaml:"id"`
	UserID    int    `json:"userId" yaml:"userId"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`

	// Transient flags, owned by the list store. Never sent over the wire.
	IsDeleting bool `json:"-" yaml:"-"`
	IsUpdating bool `json:"-" yaml:"-"`
}

// IsDraft reports whether the item has not been persisted yet.
func (it Item) IsDraft() bool { return it.ID == 0 }

// Busy reports whether an operation is outstanding for the item.
func (it Item) Busy() bool { return it.IsDeleting || it.IsUpdating }

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TitlePatch builds a patch that only changes the title.
func TitlePatch(title string) Patch { return Patch{Title: &title} }

// CompletedPatch builds a patch that only changes the completed flag.
func CompletedPatch(done bool) Patch { return Patch{Completed: &done} }

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.Title == nil && p.Completed == nil }

// Apply returns a copy of it with the patch fields applied.
func (p Patch) Apply(it Item) Item {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
	return it
}
