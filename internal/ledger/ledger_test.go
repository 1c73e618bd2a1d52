package ledger

import (
	"context"
	"testing"

	"hexa-arcade/internal/store/sqlite"
)

func TestCreditWinOpensAccount(t *testing.T) {
	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer st.Close()
	l := New(st, 25)
	ctx := context.Background()

	if bal, err := l.Balance(ctx, "u1"); err != nil || bal != 0 {
		t.Fatalf("balance before win = %d err=%v", bal, err)
	}
	for i, sid := range []string{"s1", "s2"} {
		bal, err := l.CreditWin(ctx, "u1", "Alice", sid)
		if err != nil {
			t.Fatalf("credit win: %v", err)
		}
		if want := int64(25 * (i + 1)); bal != want {
			t.Fatalf("balance = %d, want %d", bal, want)
		}
	}
	top, err := l.Richest(ctx, 5)
	if err != nil {
		t.Fatalf("richest: %v", err)
	}
	if len(top) != 1 || top[0].DisplayName != "Alice" || top[0].Balance != 50 {
		t.Fatalf("unexpected richest: %+v", top)
	}
}

func TestCreditWinDisabledWithoutReward(t *testing.T) {
	l := New(nil, 0)
	bal, err := l.CreditWin(context.Background(), "u1", "Alice", "s1")
	if err != nil || bal != 0 {
		t.Fatalf("bal=%d err=%v", bal, err)
	}
}
