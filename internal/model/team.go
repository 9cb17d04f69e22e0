package model

type Team struct {
	ID     string `json:"team_id"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// TeamMember is a (user, team) membership. Every team member must already
// belong to the team's owning room.
type TeamMember struct {
	UserID  string `json:"user_id" validate:"required"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Tag     string `json:"tag"`
	IsChief bool   `json:"is_chief"`
}
