package upstream

import (
	"context"
	"errors"
	"sync"
)

// ErrTokensNotFound is returned by a TokenStore with nothing saved for a key.
var ErrTokensNotFound = errors.New("session tokens not found")

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists session tokens between requests.
type TokenStore interface {
	Load(ctx context.Context, key string) (Tokens, error)
	Save(ctx context.Context, key string, tokens Tokens) error
	Delete(ctx context.Context, key string) error
}

// Session holds the access/refresh token pair attached to upstream calls for
// one user. It is created per request and shared by reference with Client.
type Session struct {
	mu     sync.RWMutex
	key    string
	store  TokenStore
	tokens Tokens
}

func NewSession(store TokenStore, key string) *Session {
	return &Session{store: store, key: key}
}

// Init loads previously saved tokens. A missing entry is not an error.
func (s *Session) Init(ctx context.Context) error {
	tokens, err := s.store.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrTokensNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

func (s *Session) Read() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// SetTokens replaces the access token and, when refresh is non-empty, the
// refresh token, then persists the pair.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	s.tokens.AccessToken = access
	if refresh != "" {
		s.tokens.RefreshToken = refresh
	}
	tokens := s.tokens
	s.mu.Unlock()

	return s.store.Save(ctx, s.key, tokens)
}

func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()

	return s.store.Delete(ctx, s.key)
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]Tokens
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]Tokens)}
}

func (m *MemoryTokenStore) Load(_ context.Context, key string) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens, ok := m.tokens[key]
	if !ok {
		return Tokens{}, ErrTokensNotFound
	}
	return tokens, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, key string, tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = tokens
	return nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}
