package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemorySubscriptionStore is an in-process SubscriptionReader and
// DispatchObserver. It is meant for embedding and tests.
type MemorySubscriptionStore struct {
	mu    sync.RWMutex
	byID  map[string]Subscription
	order []string
}

func NewMemorySubscriptionStore(subscriptions ...Subscription) *MemorySubscriptionStore {
	store := &MemorySubscriptionStore{byID: map[string]Subscription{}}
	for _, subscription := range subscriptions {
		_ = store.Put(subscription)
	}
	return store
}

// Put inserts or replaces a subscription by id.
func (s *MemorySubscriptionStore) Put(subscription Subscription) error {
	if s == nil {
		return fmt.Errorf("core: memory subscription store is nil")
	}
	id := strings.TrimSpace(subscription.ID)
	if id == "" {
		return fmt.Errorf("core: subscription id is required")
	}
	subscription.ID = id
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = map[string]Subscription{}
	}
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	s.byID[id] = cloneSubscription(subscription)
	return nil
}

func (s *MemorySubscriptionStore) Get(_ context.Context, id string) (Subscription, error) {
	if s == nil {
		return Subscription{}, fmt.Errorf("core: memory subscription store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	subscription, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Subscription{}, fmt.Errorf("core: subscription %q not found", id)
	}
	return cloneSubscription(subscription), nil
}

func (s *MemorySubscriptionStore) SubscriptionsForKind(ctx context.Context, kind EventKind) ([]Subscription, error) {
	if s == nil {
		return nil, fmt.Errorf("core: memory subscription store is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.order))
	for _, id := range s.order {
		subscription := s.byID[id]
		if !subscription.Subscribes(kind) {
			continue
		}
		out = append(out, cloneSubscription(subscription))
	}
	return out, nil
}

func (s *MemorySubscriptionStore) RecordDispatched(_ context.Context, subscriptionID string, at time.Time) error {
	if s == nil {
		return fmt.Errorf("core: memory subscription store is nil")
	}
	id := strings.TrimSpace(subscriptionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	subscription, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("core: subscription %q not found", subscriptionID)
	}
	firedAt := at.UTC()
	subscription.LastFiredAt = &firedAt
	s.byID[id] = subscription
	return nil
}

// IDs returns the stored subscription ids sorted lexically.
func (s *MemorySubscriptionStore) IDs() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]string(nil), s.order...)
	sort.Strings(out)
	return out
}

func cloneSubscription(in Subscription) Subscription {
	out := in
	if in.Filters != nil {
		out.Filters = append([]byte(nil), in.Filters...)
	}
	if in.LastFiredAt != nil {
		value := *in.LastFiredAt
		out.LastFiredAt = &value
	}
	return out
}

var (
	_ SubscriptionReader = (*MemorySubscriptionStore)(nil)
	_ DispatchObserver   = (*MemorySubscriptionStore)(nil)
)
