// Copyright (c) Homewatch
// SPDX-License-Identifier: Apache-2.0

package postgres

import migrate "github.com/rubenv/sql-migrate"

// Migration of the readings store. Variant columns are nullable; exactly
// one variant group is populated per row, enforced at the application
// boundary rather than with check constraints.
func Migration() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "readings_1",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS readings (
						id              UUID PRIMARY KEY,
						type            TEXT NOT NULL,
						name            TEXT NOT NULL,
						co2             INT,
						pm25            INT,
						humidity        INT,
						motion_detected BOOL,
						energy_kwh      DOUBLE PRECISION,
						captured_at     TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_readings_type ON readings (type)`,
					`CREATE INDEX IF NOT EXISTS idx_readings_name ON readings (name)`,
					`CREATE INDEX IF NOT EXISTS idx_readings_captured_at ON readings (captured_at DESC)`,
				},
				Down: []string{
					"DROP TABLE readings",
				},
			},
		},
	}
}
