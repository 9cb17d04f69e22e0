package model

type Room struct {
	ID    string   `json:"room_id"`
	Name  string   `json:"name" validate:"required"`
	Roles []string `json:"list_role,omitempty"`
	Tags  []string `json:"list_tag,omitempty"`
}

// RoomMember is a (user, room) membership. A room may have any number of
// chiefs; the creator becomes the first one.
type RoomMember struct {
	UserID  string `json:"user_id" validate:"required"`
	IsChief bool   `json:"is_chief"`
}
