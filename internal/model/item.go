package model

// Item is a category of recyclable material a collection point accepts.
type Item struct {
	ID    int64  `json:"item_id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// ItemTitle is the projection returned alongside a point's details.
type ItemTitle struct {
	Title string `json:"title"`
}
