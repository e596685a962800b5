package model

// Advert is a broadcast message configured on the remote service
type Advert struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color"`
}
