package dto

type UpdateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}
