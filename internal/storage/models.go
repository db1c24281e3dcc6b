package storage

import (
	"time"
)

// TagUse records how often and how recently a hashtag was searched.
type TagUse struct {
	Tag      string    `json:"tag"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}
