package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeverse-ai/codeverse/internal/domain/chat"
)

// --- Chat sessions ---

const chatSessionColumns = `id, plan_id, messages, status, version, created_at, updated_at`

func (s *Store) ListChatSessions(ctx context.Context, planID string) ([]chat.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+chatSessionColumns+` FROM chat_sessions WHERE plan_id = $1 ORDER BY created_at DESC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []chat.Session
	for rows.Next() {
		cs, err := scanChatSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}

func (s *Store) GetChatSession(ctx context.Context, id string) (*chat.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+chatSessionColumns+` FROM chat_sessions WHERE id = $1`, id)

	cs, err := scanChatSession(row)
	if err != nil {
		return nil, notFoundWrap(err, "get chat session %s", id)
	}
	return &cs, nil
}

func (s *Store) LatestChatSession(ctx context.Context, planID string) (*chat.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+chatSessionColumns+` FROM chat_sessions
		 WHERE plan_id = $1 ORDER BY created_at DESC LIMIT 1`, planID)

	cs, err := scanChatSession(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest chat session %s: %w", planID, err)
	}
	return &cs, nil
}

func (s *Store) CreateChatSession(ctx context.Context, req chat.CreateRequest) (*chat.Session, error) {
	status := req.Status
	if status == "" {
		status = chat.StatusActive
	}
	msgs := req.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	messagesJSON, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (plan_id, messages, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+chatSessionColumns,
		req.PlanID, messagesJSON, string(status))

	cs, err := scanChatSession(row)
	if err != nil {
		return nil, conflictWrap(err, "create chat session")
	}
	return &cs, nil
}

func (s *Store) UpdateChatSession(ctx context.Context, id string, req chat.UpdateRequest) (*chat.Session, error) {
	var messagesJSON []byte
	if req.Messages != nil {
		var err error
		messagesJSON, err = json.Marshal(*req.Messages)
		if err != nil {
			return nil, fmt.Errorf("marshal messages: %w", err)
		}
	}
	var status *string
	if req.Status != nil {
		v := string(*req.Status)
		status = &v
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE chat_sessions SET
		   messages = COALESCE($2, messages),
		   status = COALESCE($3, status),
		   version = version + 1
		 WHERE id = $1
		 RETURNING `+chatSessionColumns,
		id, messagesJSON, status)

	cs, err := scanChatSession(row)
	if err != nil {
		return nil, notFoundWrap(err, "update chat session %s", id)
	}
	return &cs, nil
}

func (s *Store) AppendChatMessages(ctx context.Context, id string, msgs ...chat.Message) (*chat.Session, error) {
	now := time.Now().UTC()
	for i := range msgs {
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = now
		}
	}
	appended, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE chat_sessions SET
		   messages = messages || $2::jsonb,
		   version = version + 1
		 WHERE id = $1
		 RETURNING `+chatSessionColumns,
		id, appended)

	cs, err := scanChatSession(row)
	if err != nil {
		return nil, notFoundWrap(err, "append chat messages %s", id)
	}
	return &cs, nil
}

func scanChatSession(row scannable) (chat.Session, error) {
	var cs chat.Session
	var messagesJSON []byte
	err := row.Scan(&cs.ID, &cs.PlanID, &messagesJSON, &cs.Status, &cs.Version, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		return cs, err
	}
	if err := json.Unmarshal(messagesJSON, &cs.Messages); err != nil {
		return cs, fmt.Errorf("unmarshal messages: %w", err)
	}
	return cs, nil
}
