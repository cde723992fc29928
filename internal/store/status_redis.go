package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Status is the externally visible record of one cut job.
type Status struct {
	State    string                 `json:"state"`
	Notice   string                 `json:"notice,omitempty"` // info|error, kind of Message
	Message  string                 `json:"message"`
	Progress string                 `json:"progress,omitempty"` // last status text
	Files    []string               `json:"files,omitempty"`
	Start    *time.Time             `json:"start_time,omitempty"`
	End      *time.Time             `json:"end_time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Store persists job statuses by id.
type Store interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Close() error
}

type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStatus{client: c, keyNS: "cut", ttl: ttl}, nil
}

func (s *RedisStatus) key(jobID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, jobID) }

func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
	m := map[string]interface{}{
		"state":    st.State,
		"notice":   st.Notice,
		"message":  st.Message,
		"progress": st.Progress,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Files != nil {
		b, _ := json.Marshal(st.Files)
		m["files"] = string(b)
	}
	if st.Metadata != nil {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}
	k := s.key(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, m)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{
		State:    res["state"],
		Notice:   res["notice"],
		Message:  res["message"],
		Progress: res["progress"],
	}
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["files"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Files)
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st, true, nil
}

func (s *RedisStatus) Close() error { return s.client.Close() }

// Ping reports whether Redis is reachable.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
