package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ThreadID  string    `bun:"thread_id,pk"`
	Summary   string    `bun:"summary,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type messageRow struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID       string `bun:"id,pk"`
	ThreadID string `bun:"thread_id,notnull"`
	Seq      int    `bun:"seq,notnull"`
	Role     string `bun:"role,notnull"`
	Payload  string `bun:"payload,type:jsonb,notnull"`
}

// PostgresStore is the bun-backed checkpoint store. Its schema mirrors
// SQLiteStore: one conversation row plus ordered message rows.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	store := &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}
	if err := store.migrate(ctx); err != nil {
		store.db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*conversationRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := s.db.NewCreateTable().Model((*messageRow)(nil)).IfNotExists().
		ForeignKey(`("thread_id") REFERENCES "conversations" ("thread_id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewCreateIndex().Model((*messageRow)(nil)).IfNotExists().
		Index("idx_messages_thread").Column("thread_id", "seq").Exec(ctx)
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*ConversationState, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	var conv conversationRow
	err := s.db.NewSelect().Model(&conv).Where("thread_id = ?", threadID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var rows []messageRow
	if err := s.db.NewSelect().Model(&rows).Where("thread_id = ?", threadID).Order("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	st := &ConversationState{
		ThreadID:  conv.ThreadID,
		Summary:   conv.Summary,
		CreatedAt: conv.CreatedAt.UTC(),
		UpdatedAt: conv.UpdatedAt.UTC(),
		Messages:  make([]Message, 0, len(rows)),
	}
	for _, row := range rows {
		var m Message
		if err := json.Unmarshal([]byte(row.Payload), &m); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", row.ID, err)
		}
		st.Messages = append(st.Messages, m)
	}

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation state loaded from store: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, st *ConversationState) error {
	if err := prepareForSave(st); err != nil {
		return err
	}

	rows := make([]messageRow, 0, len(st.Messages))
	for seq, m := range st.Messages {
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		rows = append(rows, messageRow{
			ID:       m.ID,
			ThreadID: st.ThreadID,
			Seq:      seq,
			Role:     string(m.Role),
			Payload:  string(payload),
		})
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		conv := &conversationRow{
			ThreadID:  st.ThreadID,
			Summary:   st.Summary,
			CreatedAt: st.CreatedAt,
			UpdatedAt: st.UpdatedAt,
		}
		if _, err := tx.NewInsert().Model(conv).
			On("CONFLICT (thread_id) DO UPDATE").
			Set("summary = EXCLUDED.summary").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert conversation: %w", err)
		}

		if ids := st.TombstoneIDs(); len(ids) > 0 {
			if _, err := tx.NewDelete().Model((*messageRow)(nil)).
				Where("thread_id = ?", st.ThreadID).
				Where("id IN (?)", bun.In(ids)).
				Exec(ctx); err != nil {
				return fmt.Errorf("purge messages: %w", err)
			}
		}

		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("seq = EXCLUDED.seq").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert messages: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return ErrInvalidThread
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*messageRow)(nil)).Where("thread_id = ?", threadID).Exec(ctx); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if _, err := tx.NewDelete().Model((*conversationRow)(nil)).Where("thread_id = ?", threadID).Exec(ctx); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		return nil
	})
}
