package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// StoreFault is what a database driver said about a failed statement.
type StoreFault struct {
	Driver     string `json:"driver"`
	Code       string `json:"code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ErrorDump flattens an error chain for request logs.
type ErrorDump struct {
	TopMessage string      `json:"top_message"`
	Code       Code        `json:"code,omitempty"`
	Chain      []string    `json:"chain,omitempty"`
	Store      *StoreFault `json:"store,omitempty"`
}

// Fields renders the dump as logger fields; store fields only appear when a
// driver error was found.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if s := d.Store; s != nil {
		fields["store_driver"] = s.Driver
		fields["store_code"] = s.Code
		fields["store_message"] = s.Message
		if s.Constraint != "" {
			fields["store_constraint"] = s.Constraint
		}
		if s.Table != "" {
			fields["store_table"] = s.Table
		}
		if s.Column != "" {
			fields["store_column"] = s.Column
		}
		if s.Detail != "" {
			fields["store_detail"] = s.Detail
		}
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Store = storeFault(err)
	return d
}

func storeFault(err error) *StoreFault {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &StoreFault{
			Driver:     "pgx",
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &StoreFault{
			Driver:     "pq",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		first := writeErr.WriteErrors[0]
		return &StoreFault{
			Driver:  "mongo",
			Code:    strconv.Itoa(first.Code),
			Message: first.Message,
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return &StoreFault{
			Driver:  "mongo",
			Code:    strconv.Itoa(int(cmdErr.Code)),
			Detail:  cmdErr.Name,
			Message: cmdErr.Message,
		}
	}
	return nil
}
