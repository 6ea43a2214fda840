package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestDumpPostgresFault(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "vendors_email_key", TableName: "vendors", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert vendor: %w", pgErr), "vendor already exists")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
	if d.Store == nil || d.Store.Driver != "pgx" || d.Store.Constraint != "vendors_email_key" {
		t.Fatalf("unexpected store fault %+v", d.Store)
	}
	fields := d.Fields()
	if fields["store_table"] != "vendors" {
		t.Fatalf("expected store_table field, got %v", fields)
	}
}

func TestDumpMongoWriteFault(t *testing.T) {
	err := fmt.Errorf("create winner: %w", mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	})

	d := Dump(err)
	if d.Store == nil || d.Store.Driver != "mongo" || d.Store.Code != "11000" {
		t.Fatalf("unexpected store fault %+v", d.Store)
	}
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(New(CodeNotFound, "game not found"))
	if d.Store != nil {
		t.Fatalf("expected no store fault, got %+v", d.Store)
	}
	if _, ok := d.Fields()["store_driver"]; ok {
		t.Fatal("store fields should be omitted")
	}
	if Dump(nil).TopMessage != "" {
		t.Fatal("nil error should dump empty")
	}
}
