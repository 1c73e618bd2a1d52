package store_test

import (
	"context"
	"testing"

	"hexa-arcade/internal/store/storetest"
	"hexa-arcade/internal/testutil"
)

func TestStorePing(t *testing.T) {
	st := testutil.OpenTestStore(t)
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestStoreRepositoryContract(t *testing.T) {
	st := testutil.OpenTestStore(t)
	storetest.Run(t, st)
}
