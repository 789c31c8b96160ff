package model

type Book struct {
	ID              uint64   `json:"id"`
	Title           string   `json:"title"`
	ISBN            string   `json:"isbn,omitempty"`
	Genre           string   `json:"genre,omitempty"`
	PublicationYear int      `json:"publicationYear,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	Description     string   `json:"description,omitempty"`
	Authors         []string `json:"authors"`
}

type BookForm struct {
	Title           string   `json:"title"`
	ISBN            string   `json:"isbn,omitempty"`
	Genre           string   `json:"genre,omitempty"`
	PublicationYear int      `json:"publicationYear"`
	Publisher       string   `json:"publisher,omitempty"`
	Description     string   `json:"description,omitempty"`
	Authors         []string `json:"authors"`
}
