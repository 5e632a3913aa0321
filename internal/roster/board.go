package roster

// Board groups a chat's registrations by status, each group in queue order.
type Board struct {
	Active    []Registration
	Queue     []Registration
	Pending   []Registration
	NotComing []Registration
	// Target is the configured player count.
	Target int
	// Occupied counts active players plus reserved core slots.
	Occupied int
}

// NewBoard groups regs, which must already be in queue order.
func NewBoard(regs []Registration, target, occupied int) Board {
	b := Board{Target: target, Occupied: occupied}
	for _, r := range regs {
		switch r.Status {
		case StatusActive:
			b.Active = append(b.Active, r)
		case StatusQueue:
			b.Queue = append(b.Queue, r)
		case StatusPendingConfirm:
			b.Pending = append(b.Pending, r)
		case StatusNotComing:
			b.NotComing = append(b.NotComing, r)
		}
	}
	return b
}

// Free returns the number of open slots.
func (b Board) Free() int {
	return max(b.Target-b.Occupied, 0)
}
