package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpNilError(t *testing.T) {
	f := Dump(nil)
	if f.TopMessage != "" || f.Code != "" || f.Chain != nil || f.PG != nil {
		t.Fatalf("expected empty forensics, got %+v", f)
	}
}

func TestDumpWalksChainAndCode(t *testing.T) {
	inner := fmt.Errorf("ledger unreachable")
	wrapped := Wrap(CodeDependency, inner, "confirmation poll failed")

	f := Dump(wrapped)
	if f.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", f.Code)
	}
	if len(f.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d: %v", len(f.Chain), f.Chain)
	}
	if f.PG != nil {
		t.Fatalf("non-database error must not carry pg detail, got %+v", f.PG)
	}
}

func TestDumpExtractsPostgresDetail(t *testing.T) {
	driverErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_transaction_signature_key",
		TableName:      "orders",
		Detail:         "Key (transaction_signature) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	wrapped := Wrap(CodeConflict, driverErr, "record order")

	f := Dump(wrapped)
	if f.PG == nil {
		t.Fatal("expected pg detail")
	}
	if f.PG.Code != "23505" || f.PG.Constraint != "orders_transaction_signature_key" || f.PG.Table != "orders" {
		t.Fatalf("unexpected pg detail %+v", f.PG)
	}
}
