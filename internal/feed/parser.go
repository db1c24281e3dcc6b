package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Wire records use pointers so absent and null fields can be told apart
// from empty strings.
type rawStatus struct {
	ID               *string          `json:"id"`
	CreatedAt        *string          `json:"created_at"`
	Content          *string          `json:"content"`
	URL              *string          `json:"url"`
	Account          *rawAccount      `json:"account"`
	MediaAttachments *[]rawAttachment `json:"media_attachments"`
	Tags             []rawTag         `json:"tags"`
}

type rawAccount struct {
	Acct        *string `json:"acct"`
	DisplayName *string `json:"display_name"`
	URL         string  `json:"url"`
}

type rawAttachment struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	URL         *string `json:"url"`
	RemoteURL   *string `json:"remote_url"`
	Description *string `json:"description"`
}

type rawTag struct {
	Name string `json:"name"`
}

// Timestamps arrive as "2024-05-01T12:00:00.000Z"; the zone marker is
// trimmed and the remainder read as UTC.
const createdAtLayout = "2006-01-02T15:04:05.999999999"

// Parse decodes a JSON array of status records. Any malformed record fails
// the whole payload.
func Parse(r io.Reader) ([]Item, error) {
	var records []rawStatus
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}

	items := make([]Item, 0, len(records))
	for i, rec := range records {
		item, err := rec.toItem(i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (rec rawStatus) toItem(index int) (Item, error) {
	missing := func(field string) error {
		return &ParseError{Index: index, Field: field}
	}

	if rec.ID == nil || *rec.ID == "" {
		return Item{}, missing("id")
	}
	if rec.Account == nil {
		return Item{}, missing("account")
	}
	if rec.Account.Acct == nil {
		return Item{}, missing("account.acct")
	}
	if rec.Account.DisplayName == nil {
		return Item{}, missing("account.display_name")
	}
	if rec.CreatedAt == nil {
		return Item{}, missing("created_at")
	}
	if rec.Content == nil {
		return Item{}, missing("content")
	}
	if rec.MediaAttachments == nil {
		return Item{}, missing("media_attachments")
	}

	createdAt, err := parseTimestamp(*rec.CreatedAt)
	if err != nil {
		return Item{}, &InvalidTimestampError{ItemID: *rec.ID, Value: *rec.CreatedAt, Err: err}
	}

	attachments := make([]Attachment, 0, len(*rec.MediaAttachments))
	for j, raw := range *rec.MediaAttachments {
		url := deref(raw.URL)
		if url == "" {
			url = deref(raw.RemoteURL)
		}
		if url == "" {
			return Item{}, missing(fmt.Sprintf("media_attachments[%d].url", j))
		}
		attachments = append(attachments, Attachment{
			ID:          raw.ID,
			Type:        raw.Type,
			URL:         url,
			Description: deref(raw.Description),
		})
	}

	var tags []string
	for _, t := range rec.Tags {
		if t.Name != "" {
			tags = append(tags, t.Name)
		}
	}

	return Item{
		ID: *rec.ID,
		Account: Account{
			Acct:        *rec.Account.Acct,
			DisplayName: *rec.Account.DisplayName,
			URL:         rec.Account.URL,
		},
		CreatedAt:   createdAt,
		Content:     *rec.Content,
		URL:         deref(rec.URL),
		Attachments: attachments,
		Tags:        tags,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.ParseInLocation(createdAtLayout, strings.TrimSuffix(value, "Z"), time.UTC)
	if err == nil {
		return t, nil
	}
	// Some servers send an explicit offset instead of Z.
	if withZone, zoneErr := time.Parse(time.RFC3339Nano, value); zoneErr == nil {
		return withZone.UTC(), nil
	}
	return time.Time{}, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
