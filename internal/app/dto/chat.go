package dto

// AssistantTurn is one prior message supplied by the client.
type AssistantTurn struct {
	Role string `json:"role" binding:"required,oneof=user model"`
	Text string `json:"text" binding:"required"`
}

type AssistantRequest struct {
	Message string          `json:"message" binding:"required"`
	History []AssistantTurn `json:"history" binding:"omitempty,dive"`
}

type AssistantReply struct {
	Reply    string        `json:"reply"`
	Listings []ListingCard `json:"listings,omitempty"`
}
