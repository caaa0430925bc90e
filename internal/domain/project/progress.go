package project

// Progress aggregation is recomputed from scratch on every call rather
// than incremented per approval. The ledger's exactly-once resolution
// guard makes incremental updates equivalent, but recomputation keeps
// the stored values auditable against the formula at any point.

// MemberProgress is the sum of weights of the member's approved tasks,
// clamped to [0, 100].
func MemberProgress(m Member) int {
	sum := 0
	for _, t := range m.Tasks {
		if t.Status == TaskApproved {
			sum += t.Weight
		}
	}
	if sum > 100 {
		return 100
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// ProjectProgress is the arithmetic mean of member progress over all
// members whose role is neither admin nor lead. Oversight roles do not
// produce deliverables and carry no weight. An empty eligible set yields 0.
func ProjectProgress(p *Project) float64 {
	var sum float64
	eligible := 0
	for _, m := range p.Members {
		if m.Role.Oversight() {
			continue
		}
		sum += float64(MemberProgress(m))
		eligible++
	}
	if eligible == 0 {
		return 0
	}
	return sum / float64(eligible)
}

// Recalculate refreshes every derived progress field on the aggregate.
// Called only inside resolution transactions so the stored values can
// never drift from the formula between saves.
func Recalculate(p *Project) {
	for i := range p.Members {
		p.Members[i].Progress = MemberProgress(p.Members[i])
	}
	p.Progress = ProjectProgress(p)
}
