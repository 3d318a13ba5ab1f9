package catalog

// SampleRecords returns the built-in fallback catalogue used when the remote
// amenity source is unavailable. IDs are stable so translations persisted
// from a sample run line up with later real runs.
func SampleRecords() []*Record {
	phrases := []struct {
		id       int
		text     string
		category string
		priority int
	}{
		{1, "Free WiFi", "connectivity", 1},
		{2, "Air conditioning", "room", 1},
		{3, "Swimming pool", "leisure", 2},
		{4, "24-hour front desk", "service", 1},
		{5, "Breakfast included", "food", 1},
		{6, "Fitness center", "leisure", 2},
		{7, "Pet friendly", "policy", 3},
		{8, "Airport shuttle", "transport", 2},
		{9, "Non-smoking rooms", "room", 1},
		{10, "Wheelchair accessible", "accessibility", 1},
	}

	out := make([]*Record, 0, len(phrases))
	for _, p := range phrases {
		r := NewRecord(p.id, p.text)
		r.Category = p.category
		r.Priority = p.priority
		out = append(out, r)
	}
	return out
}
