package queue

const TypeNarrationRun = "narration:run"

type NarrationRunPayload struct {
	NarrationID string `json:"narration_id"`
}
