package protocol

const ProtocolVersion = "maze/1"

type CellAddress struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is a finished (or cancelled) grid. Cells holds one bit per cell,
// row-major, least significant bit first; a set bit is a wall.
type Snapshot struct {
	RunID           string `json:"runId"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Cells           []byte `json:"cells"`
	RegionsCount    int    `json:"regionsCount"`
	Splits          int    `json:"splits"`
	BudgetLeft      int    `json:"budgetLeft"`
	Cancelled       bool   `json:"cancelled"`
	ProtocolVersion string `json:"protocolVersion"`
}

func PackCells(cells []bool) []byte {
	out := make([]byte, (len(cells)+7)/8)
	for i, blocked := range cells {
		if blocked {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// UnpackCells expands n cells from packed; missing bytes read as open.
func UnpackCells(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		if i/8 < len(packed) {
			out[i] = packed[i/8]&(1<<(i%8)) != 0
		}
	}
	return out
}
