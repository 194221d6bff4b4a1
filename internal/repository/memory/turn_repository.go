package memory

import (
	"context"
	"sync"
	"time"

	"civic-assistant-be/pkg/rag/stream"

	"github.com/patrickmn/go-cache"
)

// TurnRepository tracks the open stream session of each conversation. At most
// one is open per conversation: beginning a turn cancels the previous one.
// Sessions that outlive the expiration are cancelled when evicted.
type TurnRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewTurnRepository caps a turn at maxTurn. A cleanupInterval below one
// disables the background janitor.
func NewTurnRepository(maxTurn, cleanupInterval time.Duration) *TurnRepository {
	c := cache.New(maxTurn, cleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		v.(*stream.Session).Cancel()
	})
	return &TurnRepository{cache: c}
}

// Begin opens a session for the conversation's next turn.
func (r *TurnRepository) Begin(ctx context.Context, conversationID string, seq int) *stream.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(conversationID); found {
		x.(*stream.Session).Cancel()
	}
	sess := stream.NewSession(ctx, conversationID, seq)
	r.cache.Set(conversationID, sess, cache.DefaultExpiration)
	return sess
}

// End forgets sess if it is still the conversation's current turn.
func (r *TurnRepository) End(sess *stream.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sess.ConversationID); found && x.(*stream.Session) == sess {
		r.cache.Delete(sess.ConversationID)
		return
	}
	sess.Cancel()
}

// Cancel stops the open turn of a conversation, reporting whether there was one.
func (r *TurnRepository) Cancel(conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversationID)
	if !found {
		return false
	}
	x.(*stream.Session).Cancel()
	return true
}

func (r *TurnRepository) Get(conversationID string) (*stream.Session, bool) {
	if x, found := r.cache.Get(conversationID); found {
		return x.(*stream.Session), true
	}
	return nil, false
}
