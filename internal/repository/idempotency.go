package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/kgraph/engine/domain/entities"
)

// IdempotencyKey represents a unique key for idempotent operations
type IdempotencyKey struct {
	UserID    string
	Operation string
	Hash      string
	CreatedAt time.Time
}

// IdempotencyStore interface for managing idempotency keys
type IdempotencyStore interface {
	// Store stores an idempotency key with its result
	Store(ctx context.Context, key IdempotencyKey, result interface{}) error

	// Get retrieves a stored result for an idempotency key
	Get(ctx context.Context, key IdempotencyKey) (interface{}, bool, error)

	// Delete removes an idempotency key (for cleanup)
	Delete(ctx context.Context, key IdempotencyKey) error

	// Cleanup removes expired idempotency keys
	Cleanup(ctx context.Context, expiration time.Duration) error
}

// InMemoryIdempotencyStore is a simple in-memory implementation
type InMemoryIdempotencyStore struct {
	store map[string]idempotencyEntry
}

type idempotencyEntry struct {
	result    interface{}
	createdAt time.Time
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		store: make(map[string]idempotencyEntry),
	}
}

// Store implements IdempotencyStore
func (s *InMemoryIdempotencyStore) Store(ctx context.Context, key IdempotencyKey, result interface{}) error {
	keyStr := s.keyToString(key)
	s.store[keyStr] = idempotencyEntry{
		result:    result,
		createdAt: time.Now(),
	}
	return nil
}

// Get implements IdempotencyStore
func (s *InMemoryIdempotencyStore) Get(ctx context.Context, key IdempotencyKey) (interface{}, bool, error) {
	keyStr := s.keyToString(key)
	entry, exists := s.store[keyStr]
	if !exists {
		return nil, false, nil
	}
	return entry.result, true, nil
}

// Delete implements IdempotencyStore
func (s *InMemoryIdempotencyStore) Delete(ctx context.Context, key IdempotencyKey) error {
	keyStr := s.keyToString(key)
	delete(s.store, keyStr)
	return nil
}

// Cleanup implements IdempotencyStore
func (s *InMemoryIdempotencyStore) Cleanup(ctx context.Context, expiration time.Duration) error {
	cutoff := time.Now().Add(-expiration)
	for key, entry := range s.store {
		if entry.createdAt.Before(cutoff) {
			delete(s.store, key)
		}
	}
	return nil
}

func (s *InMemoryIdempotencyStore) keyToString(key IdempotencyKey) string {
	return fmt.Sprintf("%s:%s:%s", key.UserID, key.Operation, key.Hash)
}

// GenerateIdempotencyKey generates an idempotency key for a document
// submission. Its Hash covers only the operation and the content hash, so a
// resubmitted document gets the same Hash regardless of caller; the
// caller's ID is carried in UserID.
func GenerateIdempotencyKey(userID, operation, contentHash string) IdempotencyKey {
	hasher := sha256.New()
	hasher.Write([]byte(fmt.Sprintf("%s:%s", operation, contentHash)))
	hash := fmt.Sprintf("%x", hasher.Sum(nil))

	return IdempotencyKey{
		UserID:    userID,
		Operation: operation,
		Hash:      hash,
		CreatedAt: time.Now(),
	}
}

// GenerateIdempotencyKeyForEdges generates an idempotency key for a
// semantic-edge commit from a concept slug to a set of target slugs.
func GenerateIdempotencyKeyForEdges(userID, operation, sourceSlug string, targetSlugs []string) IdempotencyKey {
	hasher := sha256.New()
	hasher.Write([]byte(fmt.Sprintf("%s:%s:%v", sourceSlug, operation, targetSlugs)))
	hash := fmt.Sprintf("%x", hasher.Sum(nil))

	return IdempotencyKey{
		UserID:    userID,
		Operation: operation,
		Hash:      hash,
		CreatedAt: time.Now(),
	}
}

// OptimisticLockError represents an optimistic locking conflict
type OptimisticLockError struct {
	ResourceID      string
	ExpectedVersion int
	ActualVersion   int
}

func (e OptimisticLockError) Error() string {
	return fmt.Sprintf("optimistic lock conflict for resource %s: expected version %d, actual version %d",
		e.ResourceID, e.ExpectedVersion, e.ActualVersion)
}

// IsOptimisticLockError checks if an error is an optimistic lock error
func IsOptimisticLockError(err error) bool {
	_, ok := err.(OptimisticLockError)
	return ok
}

// ConflictResolutionStrategy defines how to resolve conflicts
type ConflictResolutionStrategy int

const (
	// ConflictReject rejects the operation when a conflict is detected
	ConflictReject ConflictResolutionStrategy = iota

	// ConflictRetry retries the operation with the latest version
	ConflictRetry

	// ConflictMerge attempts to merge the changes
	ConflictMerge
)

// ConflictResolver defines how to resolve a write conflict between two
// versions of the same Concept (e.g. two ingestion jobs that both matched
// the same concept_id in the same commit window).
type ConflictResolver interface {
	ResolveConflict(ctx context.Context, current, incoming *entities.Concept) (*entities.Concept, error)
}

// LastWriteWinsResolver implements a simple last-write-wins strategy
type LastWriteWinsResolver struct{}

// ResolveConflict implements ConflictResolver
func (r *LastWriteWinsResolver) ResolveConflict(ctx context.Context, current, incoming *entities.Concept) (*entities.Concept, error) {
	return incoming, nil
}

// MergeResolver implements a merge-based conflict resolution: it keeps the
// incoming concept's label but unions the two concepts' search terms so
// neither side's evidence is lost.
type MergeResolver struct{}

// ResolveConflict implements ConflictResolver
func (r *MergeResolver) ResolveConflict(ctx context.Context, current, incoming *entities.Concept) (*entities.Concept, error) {
	incoming.MergeFrom(current)
	return incoming, nil
}

// IdempotentOperation represents an operation that can be made idempotent
type IdempotentOperation[T any] struct {
	store     IdempotencyStore
	key       IdempotencyKey
	operation func() (T, error)
}

// NewIdempotentOperation creates a new idempotent operation
func NewIdempotentOperation[T any](store IdempotencyStore, key IdempotencyKey, operation func() (T, error)) *IdempotentOperation[T] {
	return &IdempotentOperation[T]{
		store:     store,
		key:       key,
		operation: operation,
	}
}

// Execute executes the operation idempotently
func (op *IdempotentOperation[T]) Execute(ctx context.Context) (T, error) {
	var zero T

	result, exists, err := op.store.Get(ctx, op.key)
	if err != nil {
		return zero, fmt.Errorf("failed to check idempotency store: %w", err)
	}

	if exists {
		if typedResult, ok := result.(T); ok {
			return typedResult, nil
		}
		return zero, fmt.Errorf("idempotency store returned unexpected type")
	}

	result, err = op.operation()
	if err != nil {
		return zero, err
	}

	if storeErr := op.store.Store(ctx, op.key, result); storeErr != nil {
		fmt.Printf("warning: failed to store idempotency key: %v\n", storeErr)
	}

	return result.(T), nil
}
