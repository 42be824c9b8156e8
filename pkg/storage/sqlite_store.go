package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
)

// SQLiteStore keeps embeds in an embedded SQLite database. The config column
// holds the same document shape the Mongo backend stores under
// embeds.<name>.config. It uses modernc.org/sqlite for CGO-less builds.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteStore creates a store pointing to dbPath. Call Init() before using it.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema exists.
func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	for _, p := range []struct{ stmt, what string }{
		{`PRAGMA journal_mode=WAL;`, "set WAL"},
		{`PRAGMA foreign_keys=ON;`, "enable FKs"},
		{`PRAGMA busy_timeout=5000;`, "set busy_timeout"},
		{`PRAGMA synchronous=NORMAL;`, "set synchronous"},
	} {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("%s: %w", p.what, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	const embedsTable = `
CREATE TABLE IF NOT EXISTS embeds (
  guild_id   TEXT NOT NULL,
  name       TEXT NOT NULL,
  config     TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  PRIMARY KEY (guild_id, name)
);`
	const channelsTable = `
CREATE TABLE IF NOT EXISTS embed_channels (
  guild_id   TEXT NOT NULL,
  name       TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  added_at   TIMESTAMP NOT NULL,
  PRIMARY KEY (guild_id, name, channel_id),
  FOREIGN KEY (guild_id, name) REFERENCES embeds(guild_id, name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_embed_channels_embed ON embed_channels(guild_id, name);`

	for _, stmt := range []string{embedsTable, channelsTable} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func decodeConfigJSON(raw string) (*configDoc, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var cfg configDoc
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SQLiteStore) channels(ctx context.Context, guildID, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id FROM embed_channels WHERE guild_id=? AND name=? ORDER BY added_at, channel_id`,
		guildID, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetEmbed(ctx context.Context, guildID, name string) (*embeds.Definition, error) {
	if s.db == nil {
		return nil, errNotInitialized
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM embeds WHERE guild_id=? AND name=?`, guildID, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get embed %s: %w", name, err)
	}
	cfg, err := decodeConfigJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode embed %s: %w", name, err)
	}
	chans, err := s.channels(ctx, guildID, name)
	if err != nil {
		return nil, fmt.Errorf("list channels of %s: %w", name, err)
	}
	def, _ := decodeEntry(guildID, name, entryDoc{Config: cfg, Channels: chans})
	return &def, nil
}

func (s *SQLiteStore) SaveEmbed(ctx context.Context, guildID, name string, def embeds.Definition) error {
	if s.db == nil {
		return errNotInitialized
	}
	raw, err := json.Marshal(encodeConfig(def))
	if err != nil {
		return fmt.Errorf("encode embed %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO embeds (guild_id, name, config, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(guild_id, name) DO UPDATE SET
           config=excluded.config,
           updated_at=excluded.updated_at`,
		guildID, name, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save embed %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteEmbed(ctx context.Context, guildID, name string) error {
	if s.db == nil {
		return errNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM embeds WHERE guild_id=? AND name=?`, guildID, name); err != nil {
		return fmt.Errorf("delete embed %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) ListEmbeds(ctx context.Context, guildID string) (map[string]embeds.Definition, error) {
	if s.db == nil {
		return nil, errNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, config FROM embeds WHERE guild_id=?`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list embeds: %w", err)
	}
	entries := make(map[string]entryDoc)
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			rows.Close()
			return nil, err
		}
		cfg, err := decodeConfigJSON(raw)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode embed %s: %w", name, err)
		}
		entries[name] = entryDoc{Config: cfg}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for name, e := range entries {
		chans, err := s.channels(ctx, guildID, name)
		if err != nil {
			return nil, fmt.Errorf("list channels of %s: %w", name, err)
		}
		e.Channels = chans
		entries[name] = e
	}
	return decodeGuild(guildDoc{GuildID: guildID, Embeds: entries}), nil
}

func (s *SQLiteStore) FindButton(ctx context.Context, guildID, customID string) (embeds.Button, string, error) {
	all, err := s.ListEmbeds(ctx, guildID)
	if err != nil {
		return embeds.Button{}, "", err
	}
	b, name, ok := findButton(all, customID)
	if !ok {
		return embeds.Button{}, "", ErrNotFound
	}
	return b, name, nil
}

func (s *SQLiteStore) ListActions(ctx context.Context, guildID, embedName, customID string) ([]embeds.Action, error) {
	def, err := s.GetEmbed(ctx, guildID, embedName)
	if err != nil {
		return nil, err
	}
	return buttonActions(def, customID)
}

func (s *SQLiteStore) ReplaceActions(ctx context.Context, guildID, embedName, customID string, actions []embeds.Action) error {
	def, err := s.GetEmbed(ctx, guildID, embedName)
	if err != nil {
		return err
	}
	buttons, err := withActions(def, customID, actions)
	if err != nil {
		return err
	}
	next := def.Clone()
	next.Buttons = buttons
	return s.SaveEmbed(ctx, guildID, embedName, next)
}

func (s *SQLiteStore) GetOpposingActionRoles(ctx context.Context, guildID, embedName, customID string, kind embeds.ActionKind) ([]string, error) {
	actions, err := s.ListActions(ctx, guildID, embedName, customID)
	if err != nil {
		return nil, err
	}
	return opposingRoles(actions, kind), nil
}

func (s *SQLiteStore) exists(ctx context.Context, guildID, name string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM embeds WHERE guild_id=? AND name=?`, guildID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) AttachChannel(ctx context.Context, guildID, name, channelID string) error {
	if s.db == nil {
		return errNotInitialized
	}
	if err := s.exists(ctx, guildID, name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embed_channels (guild_id, name, channel_id, added_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(guild_id, name, channel_id) DO NOTHING`,
		guildID, name, channelID, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) DetachChannel(ctx context.Context, guildID, name, channelID string) error {
	if s.db == nil {
		return errNotInitialized
	}
	if err := s.exists(ctx, guildID, name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM embed_channels WHERE guild_id=? AND name=? AND channel_id=?`,
		guildID, name, channelID,
	)
	return err
}

func (s *SQLiteStore) ClearChannels(ctx context.Context, guildID, name string) error {
	if s.db == nil {
		return errNotInitialized
	}
	if err := s.exists(ctx, guildID, name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM embed_channels WHERE guild_id=? AND name=?`, guildID, name)
	return err
}

func (s *SQLiteStore) ListChannels(ctx context.Context, guildID, name string) ([]string, error) {
	if s.db == nil {
		return nil, errNotInitialized
	}
	if err := s.exists(ctx, guildID, name); err != nil {
		return nil, err
	}
	return s.channels(ctx, guildID, name)
}

func (s *SQLiteStore) ListGuilds(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, errNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT guild_id FROM embeds ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ EmbedStore = (*SQLiteStore)(nil)
