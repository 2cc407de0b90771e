package types

type UserResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Bio      string   `json:"bio,omitempty"`
	Skills   []string `json:"skills"`
	Location string   `json:"location,omitempty"`
}

// SenderRef is the expanded form of a message sender.
type SenderRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
