// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

// Package postgres persists sensor readings in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/homewatch/homewatch/pkg/errors"
	"github.com/homewatch/homewatch/readings"
	"github.com/homewatch/homewatch/writer"
)

var (
	errSaveReading   = errors.New("failed to save reading to database")
	errTransRollback = errors.New("failed to rollback transaction")
	errReadReadings  = errors.New("failed to read readings from database")
)

var _ writer.Repository = (*readingRepository)(nil)

type readingRepository struct {
	db *sqlx.DB
}

// New returns a PostgreSQL-backed readings repository.
func New(db *sqlx.DB) writer.Repository {
	return &readingRepository{db: db}
}

func (rr *readingRepository) Save(ctx context.Context, rs []readings.Reading) (err error) {
	q := `INSERT INTO readings (id, type, name, co2, pm25, humidity, motion_detected, energy_kwh, captured_at)
		VALUES (:id, :type, :name, :co2, :pm25, :humidity, :motion_detected, :energy_kwh, :captured_at)`

	tx, err := rr.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(errSaveReading, err)
	}
	defer func() {
		if err != nil {
			if txErr := tx.Rollback(); txErr != nil {
				err = errors.Wrap(err, errors.Wrap(errTransRollback, txErr))
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = errors.Wrap(errSaveReading, err)
		}
	}()

	for _, r := range rs {
		if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
			pgErr, ok := err.(*pgconn.PgError)
			if ok {
				switch pgErr.Code {
				case pgerrcode.UniqueViolation:
					return errors.Wrap(errors.ErrConflict, err)
				case pgerrcode.InvalidTextRepresentation:
					return errors.Wrap(errors.ErrMalformedEntity, err)
				}
			}
			return errors.Wrap(errSaveReading, err)
		}
	}

	return nil
}

func (rr *readingRepository) ReadAll(ctx context.Context, pm writer.PageMetadata) (writer.Page, error) {
	cond := fmtCondition(pm)
	q := fmt.Sprintf(`SELECT id, type, name, co2, pm25, humidity, motion_detected, energy_kwh, captured_at
		FROM readings %s ORDER BY captured_at DESC LIMIT :limit OFFSET :offset`, cond)

	params := map[string]any{
		"limit":  pm.Limit,
		"offset": pm.Offset,
		"type":   pm.Kind,
		"name":   pm.Location,
		"from":   pm.From,
		"to":     pm.To,
	}

	rows, err := rr.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return writer.Page{}, errors.Wrap(errReadReadings, err)
	}
	defer rows.Close()

	page := writer.Page{
		PageMetadata: pm,
		Readings:     []readings.Reading{},
	}
	for rows.Next() {
		var r readings.Reading
		if err := rows.StructScan(&r); err != nil {
			return writer.Page{}, errors.Wrap(errReadReadings, err)
		}
		page.Readings = append(page.Readings, r)
	}

	qc := fmt.Sprintf(`SELECT COUNT(*) FROM readings %s`, cond)
	total, err := total(ctx, rr.db, qc, params)
	if err != nil {
		return writer.Page{}, errors.Wrap(errReadReadings, err)
	}
	page.Total = total

	return page, nil
}

func fmtCondition(pm writer.PageMetadata) string {
	condition := ""
	op := "WHERE"
	if pm.Kind != "" {
		condition = fmt.Sprintf(`%s %s type = :type`, condition, op)
		op = "AND"
	}
	if pm.Location != "" {
		condition = fmt.Sprintf(`%s %s name = :name`, condition, op)
		op = "AND"
	}
	if !pm.From.IsZero() {
		condition = fmt.Sprintf(`%s %s captured_at >= :from`, condition, op)
		op = "AND"
	}
	if !pm.To.IsZero() {
		condition = fmt.Sprintf(`%s %s captured_at < :to`, condition, op)
	}
	return condition
}

func total(ctx context.Context, db *sqlx.DB, query string, params map[string]any) (uint64, error) {
	rows, err := db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total uint64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, nil
}
