package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1Gatherings,
	2: migrationV2GatheringKindIndex,
}

// migrationV1Gatherings creates the gatherings table.
//
// The rule column holds the rule's JSON wire form, for example
// {"kind":"nthDay","month":5,"byday":"1SU","offset":"-1SA","interval":1}.
// Occurrences are computed on request and never stored.
const migrationV1Gatherings = `
CREATE TABLE IF NOT EXISTS gatherings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    description TEXT,
    rule TEXT NOT NULL,
    timezone TEXT NOT NULL DEFAULT 'UTC',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_gatherings_name ON gatherings(name);
`

// migrationV2GatheringKindIndex indexes the anchor kind so gatherings can be
// filtered by it without decoding every rule.
const migrationV2GatheringKindIndex = `
CREATE INDEX IF NOT EXISTS idx_gatherings_rule_kind
    ON gatherings(json_extract(rule, '$.kind'));
`
