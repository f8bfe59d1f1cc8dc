package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS envelopes (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    owner                INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    name_key             TEXT NOT NULL,
    limit_cents          INTEGER NOT NULL CHECK (limit_cents > 0),
    spent_cents          INTEGER NOT NULL DEFAULT 0 CHECK (spent_cents >= 0),
    created_at           TEXT NOT NULL,
    UNIQUE (owner, name_key)
);

CREATE TABLE IF NOT EXISTS expenses (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    owner                INTEGER NOT NULL,
    envelope_id          INTEGER NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    amount_cents         INTEGER NOT NULL CHECK (amount_cents > 0),
    payee                TEXT NOT NULL,
    category             TEXT NOT NULL,
    occurred_at          TEXT NOT NULL,
    recorded_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS payee_memory (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    owner                INTEGER NOT NULL,
    payee_key            TEXT NOT NULL,
    envelope_id          INTEGER NOT NULL REFERENCES envelopes(id) ON DELETE CASCADE,
    created_at           TEXT NOT NULL,
    UNIQUE (owner, payee_key)
);

CREATE TABLE IF NOT EXISTS closing_config (
    owner                INTEGER PRIMARY KEY,
    closing_day          INTEGER NOT NULL CHECK (closing_day BETWEEN 1 AND 28),
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recurring_bills (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    owner                INTEGER NOT NULL,
    description          TEXT NOT NULL,
    description_key      TEXT NOT NULL,
    due_day              INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 28),
    fixed_cents          INTEGER CHECK (fixed_cents IS NULL OR fixed_cents > 0),
    envelope_id          INTEGER REFERENCES envelopes(id) ON DELETE SET NULL,
    active               INTEGER NOT NULL DEFAULT 1,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bill_cycle_payments (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    bill_id              INTEGER NOT NULL REFERENCES recurring_bills(id) ON DELETE CASCADE,
    owner                INTEGER NOT NULL,
    month                INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    year                 INTEGER NOT NULL,
    amount_cents         INTEGER CHECK (amount_cents IS NULL OR amount_cents > 0),
    paid                 INTEGER NOT NULL DEFAULT 0,
    paid_at              TEXT,
    last_reminder_at     TEXT,
    UNIQUE (bill_id, month, year)
);

CREATE INDEX IF NOT EXISTS idx_envelopes_owner ON envelopes(owner);
CREATE INDEX IF NOT EXISTS idx_expenses_envelope_time ON expenses(envelope_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_expenses_owner_time ON expenses(owner, occurred_at);
CREATE INDEX IF NOT EXISTS idx_bills_owner ON recurring_bills(owner, description_key);
`
