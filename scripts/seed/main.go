// Command seed provisions a development database: it creates the schema
// when missing and inserts a few athletes with known passwords so the API
// can be exercised locally.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const schema = `
CREATE TABLE IF NOT EXISTS athletes (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name     TEXT NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS athlete_roles (
    athlete_id TEXT NOT NULL REFERENCES athletes(id) ON DELETE CASCADE,
    role       TEXT NOT NULL,
    UNIQUE (athlete_id, role)
);

CREATE TABLE IF NOT EXISTS applications (
    id                TEXT PRIMARY KEY,
    athlete_id        TEXT NOT NULL REFERENCES athletes(id),
    status            TEXT NOT NULL,
    work_email        TEXT NOT NULL,
    expertise         TEXT NOT NULL,
    experience_years  INTEGER NOT NULL DEFAULT 0,
    location          TEXT NOT NULL,
    submitted_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    reviewed_at       TIMESTAMPTZ,
    reviewed_by_id    TEXT REFERENCES athletes(id),
    review_notes      TEXT,
    rejection_reason  TEXT,
    can_reapply_after TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_applications_athlete_status ON applications (athlete_id, status);

CREATE TABLE IF NOT EXISTS associate_profiles (
    id               TEXT PRIMARY KEY,
    athlete_id       TEXT NOT NULL UNIQUE REFERENCES athletes(id),
    application_id   TEXT NOT NULL REFERENCES applications(id),
    work_email       TEXT NOT NULL,
    expertise        TEXT NOT NULL,
    experience_years INTEGER NOT NULL DEFAULT 0,
    location         TEXT NOT NULL,
    verified_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS team_formation_applications (
    id           TEXT PRIMARY KEY,
    applicant_id TEXT NOT NULL REFERENCES athletes(id),
    status       TEXT NOT NULL,
    name         TEXT NOT NULL,
    sport        TEXT NOT NULL,
    rank         TEXT,
    class        TEXT,
    location     TEXT NOT NULL,
    review_note  TEXT,
    reviewed_at  TIMESTAMPTZ,
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    team_id      TEXT
);

CREATE TABLE IF NOT EXISTS teams (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    sport      TEXT NOT NULL,
    rank       TEXT,
    class      TEXT,
    location   TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS team_memberships (
    id         TEXT PRIMARY KEY,
    team_id    TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    athlete_id TEXT NOT NULL UNIQUE,
    role       TEXT NOT NULL,
    is_captain BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS team_counters (
    team_id       TEXT PRIMARY KEY REFERENCES teams(id) ON DELETE CASCADE,
    members_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evaluation_requests (
    id             TEXT PRIMARY KEY,
    athlete_id     TEXT NOT NULL REFERENCES athletes(id),
    guide_id       TEXT NOT NULL REFERENCES athletes(id),
    status         TEXT NOT NULL,
    message        TEXT NOT NULL,
    scheduled_date TEXT,
    scheduled_time TEXT,
    location       TEXT,
    equipment      TEXT,
    otp            TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    responded_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_evaluation_requests_pair ON evaluation_requests (athlete_id, guide_id, status);

CREATE TABLE IF NOT EXISTS notifications (
    id         TEXT PRIMARY KEY,
    athlete_id TEXT NOT NULL REFERENCES athletes(id) ON DELETE CASCADE,
    actor_id   TEXT,
    type       TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    data       JSONB NOT NULL DEFAULT '{}',
    is_read    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_feed ON notifications (athlete_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (athlete_id) WHERE is_read = FALSE;
`

type seedAthlete struct {
	email    string
	fullName string
	password string
	roles    []string
}

var seedAthletes = []seedAthlete{
	{"athlete@example.com", "Dev Athlete", "athlete123", []string{"ATHLETE"}},
	{"moderator@example.com", "Dev Moderator", "moderator123", []string{"ATHLETE", "MODERATOR"}},
	{"guide@example.com", "Dev Guide", "guide123", []string{"ATHLETE", "GUIDE"}},
}

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "host=localhost port=5432 user=postgres password=postgres dbname=sportsv2 sslmode=disable", "PostgreSQL DSN")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	log.Println("schema ready")

	for _, a := range seedAthletes {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		id := uuid.NewString()
		res, err := db.ExecContext(ctx, `INSERT INTO athletes (id, email, password_hash, full_name)
			VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING`, id, a.email, string(hash), a.fullName)
		if err != nil {
			log.Fatalf("insert athlete %s: %v", a.email, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			if err := db.GetContext(ctx, &id, `SELECT id FROM athletes WHERE email = $1`, a.email); err != nil {
				log.Fatalf("resolve athlete %s: %v", a.email, err)
			}
		}
		for _, role := range a.roles {
			if _, err := db.ExecContext(ctx, `INSERT INTO athlete_roles (athlete_id, role)
				VALUES ($1, $2) ON CONFLICT (athlete_id, role) DO NOTHING`, id, role); err != nil {
				log.Fatalf("grant role %s to %s: %v", role, a.email, err)
			}
		}
		log.Printf("seeded %s (%v)", a.email, a.roles)
	}
}
