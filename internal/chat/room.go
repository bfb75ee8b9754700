package chat

import "github.com/vovakirdan/roomview/internal/rtdb"

// Room is the metadata document of a chat room. TotalMessages and
// LatestMessage are denormalized aggregates maintained by Send; they can
// lag the messages collection after a failed second write and are treated
// as hints, not truth.
type Room struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	TotalMessages int64  `json:"totalMessages"`
	LatestMessage string `json:"latestMessage,omitempty"`
}

// RoomFromDoc maps a raw room document onto a Room. Missing fields keep
// their zero values.
func RoomFromDoc(id string, doc rtdb.Value) Room {
	room := Room{ID: id}
	if v, ok := doc["name"].(string); ok {
		room.Name = v
	}
	if v, ok := doc["description"].(string); ok {
		room.Description = v
	}
	room.TotalMessages = toInt64(doc["totalMessages"])
	if v, ok := doc["latestMessage"].(string); ok {
		room.LatestMessage = v
	}
	return room
}

// toInt64 normalizes the numeric types a document field can arrive as:
// int64 from in-process writes, float64 after a JSON round trip.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
