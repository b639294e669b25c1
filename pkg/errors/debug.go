package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Forensics is the loggable breakdown of a failure: the classified code,
// the full unwrap chain, and any Postgres driver detail buried inside.
// Handlers attach it to the request log; none of it reaches clients.
type Forensics struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PG *PGDetail `json:"pg,omitempty"`
}

// PGDetail carries the driver-level fields of a Postgres error, whichever
// driver produced it.
type PGDetail struct {
	Code       string `json:"code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Dump flattens err into Forensics for structured logging.
func Dump(err error) Forensics {
	if err == nil {
		return Forensics{}
	}

	f := Forensics{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		f.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		f.Chain = append(f.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	f.PG = pgDetail(err)
	return f
}

func pgDetail(err error) *PGDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDetail{
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
		return &PGDetail{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
