package database

// Migrations returns the schema history in order. Append new versions,
// never edit applied ones.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "init_schema",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS parcels (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					span TEXT NOT NULL UNIQUE,
					address TEXT NOT NULL DEFAULT '',
					town TEXT NOT NULL DEFAULT '',
					lat REAL NOT NULL DEFAULT 0,
					lng REAL NOT NULL DEFAULT 0,
					acres REAL NOT NULL DEFAULT 0,
					assessed_total INTEGER NOT NULL DEFAULT 0,
					geometry TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS str_listings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					platform TEXT NOT NULL,
					listing_id TEXT NOT NULL,
					listing_url TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL DEFAULT '',
					lat REAL NOT NULL,
					lng REAL NOT NULL,
					bedrooms INTEGER,
					max_guests INTEGER,
					price_per_night_usd INTEGER,
					total_reviews INTEGER NOT NULL DEFAULT 0,
					average_rating REAL,
					is_active INTEGER NOT NULL DEFAULT 1,
					parcel_id INTEGER REFERENCES parcels(id),
					match_method TEXT NOT NULL DEFAULT '',
					match_confidence REAL,
					candidate_dwelling_count INTEGER NOT NULL DEFAULT 0,
					review_status TEXT NOT NULL DEFAULT 'unreviewed',
					dwelling_id INTEGER,
					reviewed_by TEXT NOT NULL DEFAULT '',
					reviewed_at TIMESTAMP,
					row_version INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(platform, listing_id)
				)`,
				`CREATE TABLE IF NOT EXISTS dwellings (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					parcel_id INTEGER NOT NULL REFERENCES parcels(id),
					unit_number TEXT,
					bedrooms INTEGER,
					use_type TEXT NOT NULL DEFAULT 'unknown',
					tax_classification TEXT NOT NULL DEFAULT '',
					homestead_filed INTEGER NOT NULL DEFAULT 0,
					str_listing_id INTEGER REFERENCES str_listings(id),
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS review_decisions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					listing_id INTEGER NOT NULL REFERENCES str_listings(id),
					action TEXT NOT NULL,
					dwelling_id INTEGER REFERENCES dwellings(id),
					rejection_reason TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					reviewer TEXT NOT NULL DEFAULT '',
					decided_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`,
			},
		},
		{
			Version: 2,
			Name:    "indexes",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_listings_review_status ON str_listings(review_status)`,
				`CREATE INDEX IF NOT EXISTS idx_listings_parcel ON str_listings(parcel_id)`,
				`CREATE INDEX IF NOT EXISTS idx_dwellings_parcel ON dwellings(parcel_id)`,
				`CREATE INDEX IF NOT EXISTS idx_dwellings_str ON dwellings(str_listing_id)`,
				`CREATE INDEX IF NOT EXISTS idx_decisions_listing ON review_decisions(listing_id, decided_at)`,
			},
		},
	}
}
