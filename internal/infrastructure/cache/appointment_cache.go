package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"passmais-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const appointmentsKeyPrefix = "appointments:"

// AppointmentCache keeps the patient's last fetched appointment list so that
// successful cancels and reschedules can be mirrored without a refetch.
type AppointmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAppointmentCache(client *redis.Client, ttl time.Duration) *AppointmentCache {
	return &AppointmentCache{client: client, ttl: ttl}
}

func appointmentsKey(userID uuid.UUID) string {
	return appointmentsKeyPrefix + userID.String()
}

// Get returns the cached list. A miss is (nil, false, nil).
func (c *AppointmentCache) Get(ctx context.Context, userID uuid.UUID) ([]entity.Appointment, bool, error) {
	raw, err := c.client.Get(ctx, appointmentsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get appointments for %s: %w", userID, err)
	}

	var appointments []entity.Appointment
	if err := json.Unmarshal(raw, &appointments); err != nil {
		return nil, false, fmt.Errorf("decode appointments for %s: %w", userID, err)
	}
	return appointments, true, nil
}

// Set replaces the whole list.
func (c *AppointmentCache) Set(ctx context.Context, userID uuid.UUID, appointments []entity.Appointment) error {
	raw, err := json.Marshal(appointments)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, appointmentsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set appointments for %s: %w", userID, err)
	}
	return nil
}

// Update applies patch to the cached appointment with the given id and
// returns the patched copy, or nil when the list or the id is not cached.
func (c *AppointmentCache) Update(ctx context.Context, userID uuid.UUID, appointmentID string, patch func(*entity.Appointment)) (*entity.Appointment, error) {
	appointments, ok, err := c.Get(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}

	for i := range appointments {
		if appointments[i].ID != appointmentID {
			continue
		}
		patch(&appointments[i])
		if err := c.Set(ctx, userID, appointments); err != nil {
			return nil, err
		}
		updated := appointments[i]
		return &updated, nil
	}
	return nil, nil
}

// Find returns the cached appointment with the given id, if any.
func (c *AppointmentCache) Find(ctx context.Context, userID uuid.UUID, appointmentID string) (*entity.Appointment, error) {
	appointments, ok, err := c.Get(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}
	for i := range appointments {
		if appointments[i].ID == appointmentID {
			found := appointments[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (c *AppointmentCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, appointmentsKey(userID)).Err()
}
