package storage

import (
	"context"

	"github.com/rs/zerolog/log"
)

// FallbackStore writes to Primary and falls back to Secondary when Primary
// fails. Deletes go to the backend recorded on the object.
type FallbackStore struct {
	Primary   Store
	Secondary Store
}

func (s *FallbackStore) Name() string { return s.Primary.Name() }

func (s *FallbackStore) Put(ctx context.Context, bucket, key, contentType string, data []byte) (Object, error) {
	obj, err := s.Primary.Put(ctx, bucket, key, contentType, data)
	if err == nil {
		return obj, nil
	}
	log.Ctx(ctx).Warn().Err(err).
		Str("bucket", bucket).
		Str("primary", s.Primary.Name()).
		Str("secondary", s.Secondary.Name()).
		Msg("primary storage failed, using fallback")
	return s.Secondary.Put(ctx, bucket, key, contentType, data)
}

func (s *FallbackStore) Delete(ctx context.Context, bucket, key string) error {
	return s.Primary.Delete(ctx, bucket, key)
}

// DeleteFrom removes an object from the backend that stored it.
func (s *FallbackStore) DeleteFrom(ctx context.Context, backend, bucket, key string) error {
	if backend == s.Secondary.Name() && backend != s.Primary.Name() {
		return s.Secondary.Delete(ctx, bucket, key)
	}
	return s.Primary.Delete(ctx, bucket, key)
}

// Remove deletes an object, honouring its recorded backend when st can route.
func Remove(ctx context.Context, st Store, backend, bucket, key string) error {
	if r, ok := st.(interface {
		DeleteFrom(ctx context.Context, backend, bucket, key string) error
	}); ok {
		return r.DeleteFrom(ctx, backend, bucket, key)
	}
	return st.Delete(ctx, bucket, key)
}
