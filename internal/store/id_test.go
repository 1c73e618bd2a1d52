package store

import "testing"

func TestNewIDMonotonic(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("id length = %d, want 26", len(id))
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, id)
		}
		prev = id
	}
}

func TestOrderClauseFallsBackToWins(t *testing.T) {
	if got := OrderClause(LeaderboardOrder(99)); got != OrderClause(OrderWins) {
		t.Fatalf("unknown order = %q", got)
	}
	if NormalizeLimit(0) != 10 || NormalizeLimit(500) != 100 || NormalizeLimit(5) != 5 {
		t.Fatal("unexpected limit normalization")
	}
}
