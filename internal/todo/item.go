// Package todo holds the to-do item model shared by the server, the stores,
// and the client.
package todo

import "time"

// MaxTextLength is the longest item text accepted, counted in runes.
const MaxTextLength = 500

// Item is the stored record. Timestamps never leave the service.
type Item struct {
	ID          int
	Text        string
	Completed   bool
	CreatedDate time.Time
	UpdatedDate *time.Time
}

// DTO returns the external shape of the item.
func (i Item) DTO() ItemDTO {
	return ItemDTO{ID: i.ID, Text: i.Text, Completed: i.Completed}
}

// ItemDTO is the item as it appears on the wire.
type ItemDTO struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ItemForCreate is the POST body.
type ItemForCreate struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ItemForUpdate is the PUT body and the working copy a patch is applied to.
type ItemForUpdate struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ForUpdate copies the mutable fields of the item.
func (i Item) ForUpdate() ItemForUpdate {
	return ItemForUpdate{ID: i.ID, Text: i.Text, Completed: i.Completed}
}
