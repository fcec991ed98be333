package model

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name,omitempty"`
	PasswordHash string `json:"-"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
