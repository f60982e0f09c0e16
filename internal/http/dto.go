package http

import (
	"time"

	"github.com/example/timetracker/internal/application"
)

// responseTimeLayout is the canonical wire form of instants.
const responseTimeLayout = "2006-01-02T15:04:05.000Z"

type tagDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type entryDTO struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	StartAt   string   `json:"startAt"`
	EndAt     *string  `json:"endAt"`
	Note      *string  `json:"note"`
	Deleted   bool     `json:"deleted"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Tags      []tagDTO `json:"tags"`
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(responseTimeLayout)
}

func toTagDTO(tag application.Tag) tagDTO {
	return tagDTO{
		ID:        tag.ID,
		Name:      tag.Name,
		Color:     tag.Color,
		CreatedAt: formatInstant(tag.CreatedAt),
		UpdatedAt: formatInstant(tag.UpdatedAt),
	}
}

func toTagDTOs(tags []application.Tag) []tagDTO {
	dtos := make([]tagDTO, 0, len(tags))
	for _, tag := range tags {
		dtos = append(dtos, toTagDTO(tag))
	}
	return dtos
}

func toEntryDTO(entry application.EntryWithTags) entryDTO {
	var endAt *string
	if entry.EndAt != nil {
		formatted := formatInstant(*entry.EndAt)
		endAt = &formatted
	}
	return entryDTO{
		ID:        entry.ID,
		UserID:    entry.UserID,
		StartAt:   formatInstant(entry.StartAt),
		EndAt:     endAt,
		Note:      entry.Note,
		Deleted:   entry.Deleted,
		CreatedAt: formatInstant(entry.CreatedAt),
		UpdatedAt: formatInstant(entry.UpdatedAt),
		Tags:      toTagDTOs(entry.Tags),
	}
}

func toEntryDTOs(entries []application.EntryWithTags) []entryDTO {
	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toEntryDTO(entry))
	}
	return dtos
}
