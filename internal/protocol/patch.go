package protocol

const (
	PatchRunStarted         = "run_started"
	PatchWallDrawn          = "wall_drawn"
	PatchGenerationComplete = "generation_complete"
	PatchError              = "error"
)

type PatchEnvelope struct {
	Sequence uint64 `json:"seq"`
	RunID    string `json:"runId"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

type RunStarted struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Budget int    `json:"budget"`
	Policy string `json:"policy"`
}

type WallDrawn struct {
	Orientation string      `json:"orientation"`
	At          int         `json:"at"`
	From        int         `json:"from"`
	To          int         `json:"to"`
	Passage     CellAddress `json:"passage"`
}

type GenerationComplete struct {
	Snapshot Snapshot `json:"snapshot"`
}

type ErrorNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
