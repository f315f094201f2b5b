package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/spec-kit/ticketbot/internal/domain"
)

const anchorFileVersion = 1

type anchorFile struct {
	Version int                     `json:"version"`
	Anchors map[string]anchorRecord `json:"anchors"`
}

type anchorRecord struct {
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type fileAnchorRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileAnchorRepository stores anchors in a single JSON document at path.
// Writes replace the file atomically so a crash never leaves it half written.
func NewFileAnchorRepository(path string) AnchorRepository {
	return &fileAnchorRepository{path: path}
}

func (r *fileAnchorRepository) Get(ctx context.Context, guildID string) (*domain.AnchorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.read()
	if err != nil {
		return nil, err
	}
	rec, ok := file.Anchors[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return &domain.AnchorRecord{
		GuildID:   guildID,
		ChannelID: rec.ChannelID,
		MessageID: rec.MessageID,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r *fileAnchorRepository) Save(ctx context.Context, record *domain.AnchorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.read()
	if err != nil {
		return err
	}
	record.UpdatedAt = time.Now().UTC()
	file.Anchors[record.GuildID] = anchorRecord{
		ChannelID: record.ChannelID,
		MessageID: record.MessageID,
		UpdatedAt: record.UpdatedAt,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode anchor file: %w", err)
	}
	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write anchor file: %w", err)
	}
	return nil
}

func (r *fileAnchorRepository) read() (*anchorFile, error) {
	file := &anchorFile{Version: anchorFileVersion, Anchors: map[string]anchorRecord{}}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read anchor file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return file, nil
	}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("decode anchor file: %w", err)
	}
	if file.Anchors == nil {
		file.Anchors = map[string]anchorRecord{}
	}
	return file, nil
}
