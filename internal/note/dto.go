package note

import (
	"errors"
	"strings"
	"time"
)

var ErrTitleAndContentRequired = errors.New("title and content are required")

type AuthorDTO struct {
	ID   *uint  `json:"id,omitempty"`
	Name string `json:"name"`
}

type NoteDTO struct {
	ID        uint      `json:"id"`
	DealID    uint      `json:"dealId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    AuthorDTO `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteRequest is the body of create and update.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Normalize trims both fields and rejects blanks.
func (in *NoteRequest) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return ErrTitleAndContentRequired
	}
	return nil
}

func toDTO(n Note) NoteDTO {
	out := NoteDTO{
		ID:        n.ID,
		DealID:    n.DealID,
		Title:     n.Title,
		Content:   n.Content,
		Author:    AuthorDTO{ID: n.AuthorID, Name: n.AuthorName},
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if out.Author.Name == "" {
		out.Author.Name = "N/A"
	}
	return out
}

func toDTOs(list []Note) []NoteDTO {
	out := make([]NoteDTO, 0, len(list))
	for _, n := range list {
		out = append(out, toDTO(n))
	}
	return out
}
