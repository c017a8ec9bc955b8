package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"todoapp/internal/todo"
)

const defaultRedisPrefix = "todo:"

// redisRecord is the JSON value stored per item.
type redisRecord struct {
	ID          int        `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CreatedDate time.Time  `json:"created_date"`
	UpdatedDate *time.Time `json:"updated_date,omitempty"`
}

// RedisStore implements Store on redis: an INCR counter for ids, a list of
// ids for insertion order, and one JSON string per item.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, defaultRedisPrefix), nil
}

// NewRedisStoreWithClient creates a store from an existing client. An empty
// prefix selects the default "todo:".
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) idsKey() string    { return s.prefix + "ids" }
func (s *RedisStore) nextIDKey() string { return s.prefix + "next_id" }
func (s *RedisStore) itemKey(id int) string {
	return s.prefix + "item:" + strconv.Itoa(id)
}

func (s *RedisStore) Insert(ctx context.Context, item todo.Item) (todo.Item, error) {
	id, err := s.client.Incr(ctx, s.nextIDKey()).Result()
	if err != nil {
		return todo.Item{}, fmt.Errorf("allocate todo id: %w", err)
	}
	item.ID = int(id)
	if item.CreatedDate.IsZero() {
		item.CreatedDate = time.Now().UTC()
	}

	data, err := encodeRecord(item)
	if err != nil {
		return todo.Item{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.itemKey(item.ID), data, 0)
		pipe.RPush(ctx, s.idsKey(), item.ID)
		return nil
	})
	if err != nil {
		return todo.Item{}, fmt.Errorf("insert todo item: %w", err)
	}
	return item, nil
}

func (s *RedisStore) Get(ctx context.Context, id int) (todo.Item, error) {
	data, err := s.client.Get(ctx, s.itemKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return todo.Item{}, ErrNotFound
	}
	if err != nil {
		return todo.Item{}, fmt.Errorf("get todo item %d: %w", id, err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) FindByText(ctx context.Context, text string, caseInsensitive bool) (todo.Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return todo.Item{}, err
	}
	for _, item := range items {
		if textMatches(item.Text, text, caseInsensitive) {
			return item, nil
		}
	}
	return todo.Item{}, ErrNotFound
}

func (s *RedisStore) List(ctx context.Context) ([]todo.Item, error) {
	ids, err := s.client.LRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list todo ids: %w", err)
	}
	items := make([]todo.Item, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse todo id %q: %w", raw, err)
		}
		keys = append(keys, s.itemKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			// removed between LRANGE and MGET
			continue
		}
		item, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *RedisStore) Update(ctx context.Context, item todo.Item) error {
	exists, err := s.client.Exists(ctx, s.itemKey(item.ID)).Result()
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", item.ID, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	data, err := encodeRecord(item)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.itemKey(item.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("update todo item %d: %w", item.ID, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, id int) (bool, error) {
	deleted, err := s.client.Del(ctx, s.itemKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("delete todo item %d: %w", id, err)
	}
	if deleted == 0 {
		return false, nil
	}
	if err := s.client.LRem(ctx, s.idsKey(), 0, id).Err(); err != nil {
		return true, fmt.Errorf("unlink todo item %d: %w", id, err)
	}
	return true, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func encodeRecord(item todo.Item) (string, error) {
	data, err := json.Marshal(redisRecord{
		ID:          item.ID,
		Text:        item.Text,
		Completed:   item.Completed,
		CreatedDate: item.CreatedDate,
		UpdatedDate: item.UpdatedDate,
	})
	if err != nil {
		return "", fmt.Errorf("marshal todo item: %w", err)
	}
	return string(data), nil
}

func decodeRecord(data string) (todo.Item, error) {
	var record redisRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return todo.Item{}, fmt.Errorf("unmarshal todo item: %w", err)
	}
	return todo.Item{
		ID:          record.ID,
		Text:        record.Text,
		Completed:   record.Completed,
		CreatedDate: record.CreatedDate,
		UpdatedDate: record.UpdatedDate,
	}, nil
}
