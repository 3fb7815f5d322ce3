package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// EventChannel is the pub/sub channel carrying session and reservation
// events for one researcher.
func EventChannel(researcherID string) string {
	return fmt.Sprintf("events:%s", researcherID)
}

// DraftKey addresses the autosaved wizard draft for one researcher and
// one reserved company.
func DraftKey(researcherID, companyKey string) string {
	return fmt.Sprintf("draft:%s:%s", researcherID, companyKey)
}
