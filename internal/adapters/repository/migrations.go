package repository

const schema = `
CREATE TABLE IF NOT EXISTS links (
    term           TEXT NOT NULL,
    instructor_id  TEXT NOT NULL,
    provider       TEXT NOT NULL,
    candidate_id   TEXT NOT NULL,
    avg_rating     REAL NOT NULL,
    rating_count   INTEGER NOT NULL,
    name_score     REAL NOT NULL,
    subject_score  REAL NOT NULL,
    uniq_score     REAL NOT NULL,
    volume_score   REAL NOT NULL,
    dept_score     REAL NOT NULL,
    course_overlap REAL NOT NULL,
    aggregate      REAL NOT NULL,
    confident      BOOLEAN NOT NULL DEFAULT 0,
    PRIMARY KEY (term, instructor_id, provider)
);

CREATE INDEX IF NOT EXISTS idx_links_instructor ON links(term, instructor_id);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
