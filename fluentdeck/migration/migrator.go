package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fluentdeck/fluentdeck/fluentdeck/database/models"
	"github.com/fluentdeck/fluentdeck/fluentdeck/leveling"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrator imports the prototype's MongoDB data into Postgres. It reads
// either raw BSON dump files (mongodump output) or a live Mongo database.
type Migrator struct {
	pgDB      *bun.DB
	dataDir   string
	batchSize int
	calc      *leveling.Calculator

	stats MigrationStats

	// Optional direct Mongo access
	mongoDB *mongo.Database

	// Optional pgx pool for COPY-based progress import
	pool *pgxpool.Pool
}

func NewMigrator(pgDB *bun.DB, dataDir string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		dataDir:   dataDir,
		batchSize: 1000,
		calc:      leveling.NewCalculator(leveling.NewDefaultConfig()),
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
	}
}

// SetBatchSize overrides the default batch size for inserts.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// UseMongo enables direct-from-Mongo migration mode.
func (m *Migrator) UseMongo(client *mongo.Client, dbName string) {
	if client != nil && dbName != "" {
		m.mongoDB = client.Database(dbName)
	}
}

// UsePool sets the pgx pool used for COPY-based progress inserts.
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

// MigrateAll imports users, cards and progress from BSON dump files.
// Import order preserves referential integrity.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	logProgress(fmt.Sprintf("Starting BSON migration from %s", m.dataDir))
	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", m.MigrateUsers},
		{"cards", m.MigrateCards},
		{"card_progress", m.MigrateProgress},
		{"word_counters", m.RecomputeWordCounters},
	}
	for _, step := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		logProgress(fmt.Sprintf("Completed migration step: %s", step.name))
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

// MigrateAllFromMongo imports directly from a live MongoDB database.
func (m *Migrator) MigrateAllFromMongo(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongo not configured; call UseMongo first")
	}
	logProgress("Starting direct MongoDB migration")
	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users_mongo", m.migrateUsersFromMongo},
		{"cards_mongo", m.migrateCardsFromMongo},
		{"card_progress_mongo", m.migrateProgressFromMongo},
		{"word_counters", m.RecomputeWordCounters},
	}
	for _, step := range steps {
		logProgress(fmt.Sprintf("Starting migration step: %s", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		logProgress(fmt.Sprintf("Completed migration step: %s", step.name))
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

func (m *Migrator) MigrateUsers(ctx context.Context) error {
	var mongoUsers []MongoUser
	err := readBSONDump(filepath.Join(m.dataDir, "users.bson"), func(doc []byte) error {
		var mu MongoUser
		if err := bson.Unmarshal(doc, &mu); err != nil {
			return err
		}
		mongoUsers = append(mongoUsers, mu)
		return nil
	})
	if err != nil {
		return err
	}
	return m.processUsers(ctx, mongoUsers)
}

func (m *Migrator) MigrateCards(ctx context.Context) error {
	var mongoCards []MongoCard
	err := readBSONDump(filepath.Join(m.dataDir, "cards.bson"), func(doc []byte) error {
		var mc MongoCard
		if err := bson.Unmarshal(doc, &mc); err != nil {
			return err
		}
		mongoCards = append(mongoCards, mc)
		return nil
	})
	if err != nil {
		return err
	}
	return m.processCards(ctx, mongoCards)
}

func (m *Migrator) MigrateProgress(ctx context.Context) error {
	var mongoProgress []MongoProgress
	err := readBSONDump(filepath.Join(m.dataDir, "progress.bson"), func(doc []byte) error {
		var mp MongoProgress
		if err := bson.Unmarshal(doc, &mp); err != nil {
			return err
		}
		mongoProgress = append(mongoProgress, mp)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			logProgress("progress.bson not found, skipping")
			return nil
		}
		return err
	}
	return m.processProgress(ctx, mongoProgress)
}

func (m *Migrator) migrateUsersFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("users").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query users: %w", err)
	}
	defer cur.Close(ctx)

	var users []MongoUser
	for cur.Next(ctx) {
		var mu MongoUser
		if err := cur.Decode(&mu); err != nil {
			m.stats.table("users").Skipped++
			continue
		}
		users = append(users, mu)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processUsers(ctx, users)
}

func (m *Migrator) migrateCardsFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("cards").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query cards: %w", err)
	}
	defer cur.Close(ctx)

	var cards []MongoCard
	for cur.Next(ctx) {
		var mc MongoCard
		if err := cur.Decode(&mc); err != nil {
			m.stats.table("cards").Skipped++
			continue
		}
		cards = append(cards, mc)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processCards(ctx, cards)
}

func (m *Migrator) migrateProgressFromMongo(ctx context.Context) error {
	cur, err := m.mongoDB.Collection("progress").Find(ctx, bson.D{})
	if err != nil {
		logProgress("progress collection not found, skipping")
		return nil
	}
	defer cur.Close(ctx)

	var rows []MongoProgress
	for cur.Next(ctx) {
		var mp MongoProgress
		if err := cur.Decode(&mp); err != nil {
			m.stats.table("card_progress").Skipped++
			continue
		}
		rows = append(rows, mp)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return m.processProgress(ctx, rows)
}

func (m *Migrator) processUsers(ctx context.Context, mongoUsers []MongoUser) error {
	tstats := m.stats.table("users")
	tstats.Read += len(mongoUsers)

	// Deduplicate by email, keeping the latest record.
	byEmail := make(map[string]MongoUser)
	for _, mu := range mongoUsers {
		if mu.Email == "" {
			tstats.Skipped++
			continue
		}
		byEmail[mu.Email] = mu
	}

	var users []*models.User
	var statRows []*models.UserStats
	for _, mu := range byEmail {
		users = append(users, m.convertUser(mu))
		statRows = append(statRows, m.convertUserStats(mu))
	}

	for start := 0; start < len(users); start += m.batchSize {
		end := min(start+m.batchSize, len(users))
		chunk := users[start:end]
		_, err := m.pgDB.NewInsert().
			Model(&chunk).
			On("CONFLICT (id) DO UPDATE").
			Set("email = EXCLUDED.email").
			Set("username = EXCLUDED.username").
			Set("password_hash = EXCLUDED.password_hash").
			Set("current_language_level = EXCLUDED.current_language_level").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert user batch: %w", err)
		}
	}
	if len(statRows) > 0 {
		_, err := m.pgDB.NewInsert().
			Model(&statRows).
			On("CONFLICT (user_id) DO UPDATE").
			Set("total_xp = EXCLUDED.total_xp").
			Set("current_level = EXCLUDED.current_level").
			Set("time_spent_sec = EXCLUDED.time_spent_sec").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert user stats batch: %w", err)
		}
	}
	tstats.Imported += len(users)

	logProgress(fmt.Sprintf("User migration completed: %d read, %d imported, %d skipped",
		tstats.Read, tstats.Imported, tstats.Skipped))
	return nil
}

func (m *Migrator) processCards(ctx context.Context, mongoCards []MongoCard) error {
	tstats := m.stats.table("cards")
	tstats.Read += len(mongoCards)

	var batch []*models.Card
	for _, mc := range mongoCards {
		card := m.convertCard(mc)
		if card.EnglishWord == "" || card.RussianTranslation == "" {
			tstats.Skipped++
			continue
		}
		batch = append(batch, card)
		if len(batch) >= m.batchSize {
			if err := m.batchInsertCards(ctx, batch); err != nil {
				return err
			}
			tstats.Imported += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := m.batchInsertCards(ctx, batch); err != nil {
			return err
		}
		tstats.Imported += len(batch)
	}

	logProgress(fmt.Sprintf("Card migration completed: %d read, %d imported, %d skipped",
		tstats.Read, tstats.Imported, tstats.Skipped))
	return nil
}

func (m *Migrator) batchInsertCards(ctx context.Context, cards []*models.Card) error {
	_, err := m.pgDB.NewInsert().
		Model(&cards).
		On("CONFLICT (id) DO UPDATE").
		Set("english_word = EXCLUDED.english_word").
		Set("russian_translation = EXCLUDED.russian_translation").
		Set("notes = EXCLUDED.notes").
		Set("audio_url = EXCLUDED.audio_url").
		Set("is_learned = EXCLUDED.is_learned").
		Set("deleted_at = EXCLUDED.deleted_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert card batch: %w", err)
	}
	return nil
}

func (m *Migrator) processProgress(ctx context.Context, mongoProgress []MongoProgress) error {
	tstats := m.stats.table("card_progress")
	tstats.Read += len(mongoProgress)

	rows := make([]*models.CardProgress, 0, len(mongoProgress))
	seen := make(map[string]bool)
	for _, mp := range mongoProgress {
		row := m.convertProgress(mp)
		key := row.UserID + "/" + row.CardID + "/" + row.Mode
		if seen[key] {
			tstats.Skipped++
			continue
		}
		seen[key] = true
		rows = append(rows, row)
	}

	if m.pool != nil {
		if err := m.copyInsertProgress(ctx, rows); err == nil {
			tstats.Imported += len(rows)
			logProgress(fmt.Sprintf("Progress COPY completed: %d rows", len(rows)))
			return nil
		} else {
			slog.Warn("COPY path failed, falling back to batch inserts", "error", err)
		}
	}

	for start := 0; start < len(rows); start += m.batchSize {
		end := min(start+m.batchSize, len(rows))
		chunk := rows[start:end]
		_, err := m.pgDB.NewInsert().
			Model(&chunk).
			On("CONFLICT (card_id, user_id, mode) DO UPDATE").
			Set("correct_answers = EXCLUDED.correct_answers").
			Set("incorrect_answers = EXCLUDED.incorrect_answers").
			Set("last_attempt = EXCLUDED.last_attempt").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert progress batch: %w", err)
		}
		tstats.Imported += len(chunk)
	}

	logProgress(fmt.Sprintf("Progress migration completed: %d read, %d imported, %d skipped",
		tstats.Read, tstats.Imported, tstats.Skipped))
	return nil
}

// copyInsertProgress bulk-loads progress rows with COPY, the fast path
// for large dumps. Only usable on an empty card_progress table.
func (m *Migrator) copyInsertProgress(ctx context.Context, rows []*models.CardProgress) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Conn().CopyFrom(ctx,
		pgx.Identifier{"card_progress"},
		[]string{"card_id", "user_id", "mode", "correct_answers", "incorrect_answers", "last_attempt"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.CardID, r.UserID, r.Mode, r.CorrectAnswers, r.IncorrectAnswers, r.LastAttempt}, nil
		}),
	)
	return err
}

// RecomputeWordCounters rebuilds total_words and learned_words on the
// stats ledger from the imported cards.
func (m *Migrator) RecomputeWordCounters(ctx context.Context) error {
	_, err := m.pgDB.ExecContext(ctx, `
		UPDATE user_stats us SET
			total_words = counts.total,
			learned_words = counts.learned
		FROM (
			SELECT user_id,
				COUNT(*) FILTER (WHERE deleted_at IS NULL) AS total,
				COUNT(*) FILTER (WHERE deleted_at IS NULL AND is_learned) AS learned
			FROM cards
			GROUP BY user_id
		) counts
		WHERE us.user_id = counts.user_id
	`)
	if err != nil {
		return fmt.Errorf("failed to recompute word counters: %w", err)
	}
	return nil
}

// readBSONDump iterates the length-prefixed documents of a mongodump
// .bson file, handing each complete document to fn.
func readBSONDump(path string, fn func(doc []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		lengthBytes := make([]byte, 4)
		if _, err := io.ReadFull(reader, lengthBytes); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read document length: %w", err)
		}

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 {
			return fmt.Errorf("invalid document length: %d", length)
		}

		docBytes := make([]byte, length-4)
		if _, err := io.ReadFull(reader, docBytes); err != nil {
			return fmt.Errorf("failed to read document bytes: %w", err)
		}

		if err := fn(append(lengthBytes, docBytes...)); err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
	}
}

func (m *Migrator) logFinalStats() {
	for name, t := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("table", name),
			slog.Int("read", t.Read),
			slog.Int("imported", t.Imported),
			slog.Int("skipped", t.Skipped))
	}
	slog.Info("Migration finished",
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}

func logProgress(msg string) {
	slog.Info(msg, slog.String("type", "migration"))
}
