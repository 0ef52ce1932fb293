package corsso

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/holsatia/corsso/password"
	"github.com/holsatia/corsso/roles"
	"github.com/redis/go-redis/v9"
)

// mockDirectory is an in-memory Directory for tests. It enforces the
// one-occupant invariant on Assign so engine bugs surface as test
// failures instead of silent double occupancy.
type mockDirectory struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string
	holders map[roles.Commission]string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		users:   map[string]UserRecord{},
		byEmail: map[string]string{},
		holders: map[roles.Commission]string{},
	}
}

func (d *mockDirectory) put(user UserRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	d.byEmail[user.Email] = user.ID
}

func (d *mockDirectory) UserByEmail(_ context.Context, email string) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return d.users[id], nil
}

func (d *mockDirectory) UserByID(_ context.Context, id string) (UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (d *mockDirectory) SaveUser(_ context.Context, user UserRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	d.users[user.ID] = user
	d.byEmail[user.Email] = user.ID
	return nil
}

func (d *mockDirectory) DeleteUser(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(d.users, id)
	delete(d.byEmail, user.Email)
	for commission, holder := range d.holders {
		if holder == id {
			delete(d.holders, commission)
		}
	}
	return nil
}

func (d *mockDirectory) CommissionsFor(_ context.Context, userID string) ([]roles.Commission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var held []roles.Commission
	for _, commission := range roles.Commissions() {
		if d.holders[commission] == userID {
			held = append(held, commission)
		}
	}
	return held, nil
}

func (d *mockDirectory) HolderOf(_ context.Context, commission roles.Commission) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	holder, ok := d.holders[commission]
	return holder, ok, nil
}

func (d *mockDirectory) Assign(_ context.Context, userID string, commission roles.Commission) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if holder, ok := d.holders[commission]; ok {
		return errors.New("commission already occupied by " + holder)
	}
	d.holders[commission] = userID
	return nil
}

func (d *mockDirectory) Vacate(_ context.Context, userID string, commission roles.Commission) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.holders[commission] != userID {
		return errors.New("user does not hold the commission")
	}
	delete(d.holders, commission)
	return nil
}

func (d *mockDirectory) failedLogins(t *testing.T, id string) int {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		t.Fatalf("unknown user %q", id)
	}
	return user.FailedLogins
}

// Cheap Argon2id parameters keep the suite fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password = password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Session.Validity = time.Hour
	cfg.Reset.Validity = time.Hour
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *mockDirectory, *miniredis.Miniredis) {
	t.Helper()
	return newTestEngineWithConfig(t, testConfig())
}

func newTestEngineWithConfig(t *testing.T, cfg Config) (*Engine, *mockDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	directory := newMockDirectory()
	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(directory).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, directory, mr
}

func seedUser(t *testing.T, engine *Engine, directory *mockDirectory, id, email, clearPassword string, mutate ...func(*UserRecord)) UserRecord {
	t.Helper()
	hash, err := engine.hasher.Hash(clearPassword)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	user := UserRecord{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Max",
		LastName:     "Mustermann",
		Status:       roles.StatusCB,
		Verified:     true,
		Registered:   time.Now(),
	}
	for _, m := range mutate {
		m(&user)
	}
	directory.put(user)
	return user
}

func mustLogin(t *testing.T, engine *Engine, email, clearPassword string) *LoginResult {
	t.Helper()
	result, err := engine.Login(context.Background(), email, clearPassword)
	if err != nil {
		t.Fatalf("Login(%q) failed: %v", email, err)
	}
	return result
}
