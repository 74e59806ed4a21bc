package domain

type FileRecord struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Uploader string `json:"uploader"`
}
