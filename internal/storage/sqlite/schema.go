package sqlite

const schema = `
-- Groves: life-domain containers
CREATE TABLE IF NOT EXISTS groves (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE CHECK(length(name) <= 100),
    description TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Trunks: strategic initiatives, optionally nested
CREATE TABLE IF NOT EXISTS trunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    grove_id INTEGER REFERENCES groves(id) ON DELETE SET NULL,
    parent_id INTEGER REFERENCES trunks(id) ON DELETE SET NULL,
    title TEXT NOT NULL CHECK(length(title) <= 255),
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active'
        CHECK(status IN ('active','paused','completed','archived')),
    priority TEXT NOT NULL DEFAULT 'medium'
        CHECK(priority IN ('urgent','high','medium','low')),
    target_date DATETIME,
    labels TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Fruits: measurable outcomes owned by exactly one trunk
CREATE TABLE IF NOT EXISTS fruits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trunk_id INTEGER NOT NULL REFERENCES trunks(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    target_value INTEGER,
    current_value INTEGER NOT NULL DEFAULT 0,
    unit TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active'
        CHECK(status IN ('active','completed','missed','abandoned')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Branches: project containers
CREATE TABLE IF NOT EXISTS branches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trunk_id INTEGER REFERENCES trunks(id) ON DELETE SET NULL,
    grove_id INTEGER REFERENCES groves(id) ON DELETE SET NULL,
    parent_id INTEGER REFERENCES branches(id) ON DELETE SET NULL,
    title TEXT NOT NULL CHECK(length(title) <= 255),
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active'
        CHECK(status IN ('active','paused','completed','archived')),
    priority TEXT NOT NULL DEFAULT 'medium'
        CHECK(priority IN ('urgent','high','medium','low')),
    target_date DATETIME,
    labels TEXT NOT NULL DEFAULT '[]',
    done_when TEXT NOT NULL DEFAULT '',
    beads_repo TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Buds: atomic work items
CREATE TABLE IF NOT EXISTS buds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    branch_id INTEGER REFERENCES branches(id) ON DELETE SET NULL,
    trunk_id INTEGER REFERENCES trunks(id) ON DELETE SET NULL,
    grove_id INTEGER REFERENCES groves(id) ON DELETE SET NULL,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'seed'
        CHECK(status IN ('seed','dormant','budding','bloomed','mulch')),
    priority TEXT NOT NULL DEFAULT 'medium'
        CHECK(priority IN ('urgent','high','medium','low')),
    story_points INTEGER,
    estimated_minutes INTEGER CHECK(estimated_minutes IS NULL OR estimated_minutes >= 0),
    assignee TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '',
    energy_level TEXT NOT NULL DEFAULT ''
        CHECK(energy_level IN ('','high','medium','low')),
    time_spent_minutes INTEGER NOT NULL DEFAULT 0 CHECK(time_spent_minutes >= 0),
    cost_cents INTEGER NOT NULL DEFAULT 0 CHECK(cost_cents >= 0),
    due_date DATETIME,
    scheduled_date DATETIME,
    defer_until DATETIME,
    labels TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    session_id TEXT NOT NULL DEFAULT '',
    source_message_id INTEGER,
    beads_id TEXT NOT NULL DEFAULT '',
    beads_synced_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    clarified_at DATETIME,
    started_at DATETIME,
    completed_at DATETIME
);

-- Dependency edges between buds. Only type='blocks' gates actionability.
CREATE TABLE IF NOT EXISTS bud_dependencies (
    bud_id INTEGER NOT NULL REFERENCES buds(id) ON DELETE CASCADE,
    depends_on_id INTEGER NOT NULL REFERENCES buds(id) ON DELETE CASCADE,
    type TEXT NOT NULL DEFAULT 'blocks'
        CHECK(type IN ('blocks','related','subtask')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (bud_id, depends_on_id, type),
    CHECK (bud_id != depends_on_id)
);

-- Append-only activity log
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_type TEXT NOT NULL CHECK(item_type IN ('grove','trunk','branch','bud')),
    item_id INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    session_id TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Pollen: candidate buds awaiting triage
CREATE TABLE IF NOT EXISTS pollen (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0 CHECK(confidence >= 0 AND confidence <= 1),
    status TEXT NOT NULL DEFAULT 'pending'
        CHECK(status IN ('pending','seeded','rejected')),
    bud_id INTEGER REFERENCES buds(id) ON DELETE SET NULL,
    reject_reason TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    processed_at DATETIME
);

-- Dew: ambient, time-bounded context signals
CREATE TABLE IF NOT EXISTS dew (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_type TEXT CHECK(item_type IS NULL OR item_type IN ('grove','trunk','branch','bud')),
    item_id INTEGER,
    content TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'fresh'
        CHECK(status IN ('fresh','absorbed','evaporated')),
    expires_at DATETIME,
    absorbed_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((item_type IS NULL) = (item_id IS NULL))
);

-- Tidy scanner thresholds, user-mutable
CREATE TABLE IF NOT EXISTS tidy_config (
    name TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);

-- Habits and their completion log
CREATE TABLE IF NOT EXISTS habits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    grove_id INTEGER REFERENCES groves(id) ON DELETE SET NULL,
    frequency TEXT NOT NULL DEFAULT 'daily'
        CHECK(frequency IN ('daily','weekly','3x_week')),
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS habit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    habit_id INTEGER NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    completed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes TEXT NOT NULL DEFAULT ''
);

-- Indexes for common access paths
CREATE INDEX IF NOT EXISTS idx_trunks_grove ON trunks(grove_id);
CREATE INDEX IF NOT EXISTS idx_trunks_parent ON trunks(parent_id);
CREATE INDEX IF NOT EXISTS idx_trunks_status ON trunks(status);
CREATE INDEX IF NOT EXISTS idx_fruits_trunk ON fruits(trunk_id);
CREATE INDEX IF NOT EXISTS idx_branches_trunk ON branches(trunk_id);
CREATE INDEX IF NOT EXISTS idx_branches_grove ON branches(grove_id);
CREATE INDEX IF NOT EXISTS idx_branches_parent ON branches(parent_id);
CREATE INDEX IF NOT EXISTS idx_branches_status ON branches(status);
CREATE INDEX IF NOT EXISTS idx_buds_branch ON buds(branch_id);
CREATE INDEX IF NOT EXISTS idx_buds_trunk ON buds(trunk_id);
CREATE INDEX IF NOT EXISTS idx_buds_grove ON buds(grove_id);
CREATE INDEX IF NOT EXISTS idx_buds_status ON buds(status);
CREATE INDEX IF NOT EXISTS idx_buds_priority ON buds(priority);
CREATE INDEX IF NOT EXISTS idx_buds_beads ON buds(branch_id, beads_id) WHERE beads_id != '';
CREATE INDEX IF NOT EXISTS idx_deps_bud ON bud_dependencies(bud_id);
CREATE INDEX IF NOT EXISTS idx_deps_depends_on ON bud_dependencies(depends_on_id);
CREATE INDEX IF NOT EXISTS idx_events_item ON events(item_type, item_id);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
CREATE INDEX IF NOT EXISTS idx_pollen_status ON pollen(status);
CREATE INDEX IF NOT EXISTS idx_dew_status ON dew(status);
CREATE INDEX IF NOT EXISTS idx_dew_item ON dew(item_type, item_id);
CREATE INDEX IF NOT EXISTS idx_habit_log_habit ON habit_log(habit_id, completed_at);
`
