//go:build integration

package containers

import (
	"database/sql"
	"testing"
)

// Schema mirrors db/schema.sql so integration tests run against the shape
// the service deploys with.
const Schema = `
CREATE TABLE custody_statuses (
    code        TEXT PRIMARY KEY,
    description TEXT NOT NULL
);

CREATE TABLE custody_event_types (
    code        TEXT PRIMARY KEY,
    description TEXT NOT NULL
);

CREATE TABLE institutions (
    id          BIGSERIAL PRIMARY KEY,
    code        TEXT NOT NULL UNIQUE,
    nomis_code  TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL
);

CREATE TABLE court_types (
    code        TEXT PRIMARY KEY,
    description TEXT NOT NULL
);

CREATE TABLE courts (
    id         BIGSERIAL PRIMARY KEY,
    code       TEXT NOT NULL,
    name       TEXT NOT NULL,
    selectable BOOLEAN NOT NULL DEFAULT TRUE,
    type_code  TEXT NOT NULL REFERENCES court_types (code)
);

CREATE TABLE offenders (
    id                  BIGSERIAL PRIMARY KEY,
    crn                 TEXT NOT NULL UNIQUE,
    noms_number         TEXT,
    pnc_number          TEXT,
    soft_deleted        BOOLEAN NOT NULL DEFAULT FALSE,
    active_sentence     BOOLEAN NOT NULL DEFAULT FALSE,
    current_exclusion   BOOLEAN NOT NULL DEFAULT FALSE,
    exclusion_message   TEXT,
    current_restriction BOOLEAN NOT NULL DEFAULT FALSE,
    restriction_message TEXT
);

CREATE TABLE offender_exclusions (
    offender_id BIGINT NOT NULL REFERENCES offenders (id),
    username    TEXT NOT NULL,
    PRIMARY KEY (offender_id, username)
);

CREATE TABLE offender_restrictions (
    offender_id BIGINT NOT NULL REFERENCES offenders (id),
    username    TEXT NOT NULL,
    PRIMARY KEY (offender_id, username)
);

CREATE TABLE sentence_events (
    id                   BIGSERIAL PRIMARY KEY,
    offender_id          BIGINT NOT NULL REFERENCES offenders (id),
    booking_number       TEXT,
    active               BOOLEAN NOT NULL DEFAULT TRUE,
    custody_status_code  TEXT REFERENCES custody_statuses (code),
    institution_id       BIGINT REFERENCES institutions (id),
    status_change_date   DATE,
    location_change_date DATE
);

CREATE TABLE custody_key_dates (
    event_id  BIGINT NOT NULL REFERENCES sentence_events (id),
    type_code TEXT NOT NULL,
    date      DATE NOT NULL,
    PRIMARY KEY (event_id, type_code)
);

CREATE TABLE custody_history (
    id          BIGSERIAL PRIMARY KEY,
    event_id    BIGINT NOT NULL REFERENCES sentence_events (id),
    offender_id BIGINT NOT NULL REFERENCES offenders (id),
    type_code   TEXT NOT NULL REFERENCES custody_event_types (code),
    detail      TEXT NOT NULL,
    date        DATE NOT NULL
);

INSERT INTO custody_statuses (code, description) VALUES
    ('A', 'Sentenced - in custody'),
    ('D', 'In custody'),
    ('B', 'Released - on licence'),
    ('T', 'Custody terminated');

INSERT INTO custody_event_types (code, description) VALUES
    ('CPL', 'Change of prison location'),
    ('TSC', 'Custody status change'),
    ('EDSS', 'Sentence key dates amended');
`

// ApplySchema creates the service schema on a fresh database.
func ApplySchema(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
}
