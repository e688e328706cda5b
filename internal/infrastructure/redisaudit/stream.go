// Package redisaudit publica las notificaciones de auditoría del libro en un stream de Redis.
package redisaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Clinica-api/internal/domain/entity"
	"github.com/jhoicas/Clinica-api/internal/domain/repository"
	"github.com/jhoicas/Clinica-api/pkg/config"
)

var _ repository.AuditSink = (*StreamSink)(nil)

// maxStreamLen recorte aproximado del stream (XADD MAXLEN ~).
const maxStreamLen = 100000

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// StreamSink destino de auditoría sobre XADD.
type StreamSink struct {
	client *redis.Client
	stream string
}

// NewStreamSink construye el destino sobre el stream indicado.
func NewStreamSink(client *redis.Client, stream string) *StreamSink {
	return &StreamSink{client: client, stream: stream}
}

// Record agrega la entrada al stream. El payload viaja como JSON en el campo payload.
func (s *StreamSink) Record(ctx context.Context, e entity.AuditEntry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("serializar auditoría: %w", err)
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"action":    e.Action,
			"entity":    e.Entity,
			"entity_id": e.EntityID,
			"actor_id":  e.ActorID,
			"at":        at.Format(time.RFC3339Nano),
			"payload":   string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
