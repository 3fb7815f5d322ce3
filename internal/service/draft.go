package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atomity/research-server-go/internal/config"
	"github.com/atomity/research-server-go/internal/model"
	redisclient "github.com/atomity/research-server-go/internal/redis"
)

// DraftStore keeps in-progress wizard state in Redis so autosave
// survives reloads without touching the submissions table.
type DraftStore struct {
	redis *redisclient.Client
	ttl   time.Duration
}

func NewDraftStore(redisClient *redisclient.Client, cfg *config.Config) *DraftStore {
	return &DraftStore{
		redis: redisClient,
		ttl:   cfg.ReservationWindow() + config.DraftTTLSlack,
	}
}

func (d *DraftStore) Save(ctx context.Context, researcherID, companyKey string, draft *model.Draft) error {
	draft.UpdatedAt = time.Now()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	key := redisclient.DraftKey(researcherID, companyKey)
	if err := d.redis.Set(ctx, key, data, d.ttl).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

func (d *DraftStore) Load(ctx context.Context, researcherID, companyKey string) (*model.Draft, error) {
	key := redisclient.DraftKey(researcherID, companyKey)

	data, err := d.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var draft model.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	draft.Form.Coerce()
	return &draft, nil
}

func (d *DraftStore) Delete(ctx context.Context, researcherID, companyKey string) error {
	key := redisclient.DraftKey(researcherID, companyKey)
	return d.redis.Del(ctx, key).Err()
}
