package domain

import "fmt"

// PublicRoomName is the display name given to pool rooms.
func PublicRoomName(capacity int) string {
	return fmt.Sprintf("public-%d", capacity)
}
