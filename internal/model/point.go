package model

import (
	"strconv"
	"strings"
)

// Point is a physical waste-collection location.
type Point struct {
	ID        int64   `json:"point_id"`
	Image     string  `json:"image"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	WhatsApp  string  `json:"whatsapp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	State     string  `json:"state"`
}

// PointDetail is a point together with the titles of the items it accepts.
type PointDetail struct {
	Point Point
	Items []ItemTitle
}

// NewPoint is the payload for creating a point and its item links.
type NewPoint struct {
	Image     string
	Name      string
	Email     string
	WhatsApp  string
	Latitude  float64
	Longitude float64
	City      string
	State     string
	ItemIDs   []int64
}

// PointFilter holds the optional, conjunctive filters for listing points.
// A nil ItemIDs means no item filter; an empty non-nil slice matches nothing.
type PointFilter struct {
	City    string
	State   string
	ItemIDs []int64
}

// ParseIDList parses a comma-separated list of ids such as "1, 2,3".
// Blank tokens are skipped and duplicates are removed, keeping first-seen order.
func ParseIDList(s string) ([]int64, error) {
	ids := []int64{}
	seen := make(map[int64]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// LenientIDList parses like ParseIDList but drops tokens that are not numbers.
// It never returns nil, so a filter built from garbage input matches nothing.
func LenientIDList(s string) []int64 {
	ids := []int64{}
	seen := make(map[int64]bool)
	for _, tok := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
