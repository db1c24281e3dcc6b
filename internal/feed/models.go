package feed

import "time"

// Account is the author of an item. URL is the profile page and may be empty.
type Account struct {
	Acct        string
	DisplayName string
	URL         string
}

// Attachment is a media object on an item. Description may be empty.
type Attachment struct {
	ID          string
	Type        string
	URL         string
	Description string
}

// Item is one post as returned by the server, validated and immutable.
type Item struct {
	ID          string
	Account     Account
	CreatedAt   time.Time
	Content     string
	URL         string
	Attachments []Attachment
	Tags        []string
}
