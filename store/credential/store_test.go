package credential

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// StoreTestSuite runs the same checks against every backend.
type StoreTestSuite struct {
	suite.Suite

	newStore func() Store
	store    Store
}

func (s *StoreTestSuite) SetupTest() {
	s.store = s.newStore()
}

func (s *StoreTestSuite) TestRegisterAndAuthenticate() {
	ctx := context.Background()

	ok, err := s.store.Register(ctx, "alice", "secret")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Authenticate(ctx, "alice", "secret")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *StoreTestSuite) TestAuthenticateFailures() {
	ctx := context.Background()
	_, err := s.store.Register(ctx, "alice", "secret")
	s.Require().NoError(err)

	testcases := []struct {
		desc     string
		username string
		password string
	}{
		{desc: "wrong password", username: "alice", password: "nope"},
		{desc: "unknown user", username: "bob", password: "secret"},
		{desc: "case matters", username: "Alice", password: "secret"},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			ok, err := s.store.Authenticate(ctx, tc.username, tc.password)
			s.NoError(err)
			s.False(ok)
		})
	}
}

func (s *StoreTestSuite) TestRegisterTaken() {
	ctx := context.Background()

	ok, err := s.store.Register(ctx, "alice", "first")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Register(ctx, "alice", "second")
	s.Require().NoError(err)
	s.False(ok)

	// The first password stays.
	ok, err = s.store.Authenticate(ctx, "alice", "first")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *StoreTestSuite) TestConcurrentRegister() {
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.Register(ctx, "racer", fmt.Sprint("pw", i))
			s.NoError(err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, won)
}

func (s *StoreTestSuite) TestSeed() {
	ctx := context.Background()
	s.Require().NoError(Seed(ctx, s.store, DefaultUsers))
	// Seeding twice is harmless.
	s.Require().NoError(Seed(ctx, s.store, DefaultUsers))

	for name, pass := range DefaultUsers {
		ok, err := s.store.Authenticate(ctx, name, pass)
		s.NoError(err)
		s.True(ok, name)
	}
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func() Store { return NewMemory(bcrypt.MinCost) },
	})
}

func TestSQLiteStore(t *testing.T) {
	ts := &StoreTestSuite{}
	ts.newStore = func() Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "users.db"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("opening sqlite store: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}
	suite.Run(t, ts)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Register(ctx, "alice", "secret"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ok, err := s.Authenticate(ctx, "alice", "secret")
	if err != nil || !ok {
		t.Fatalf("expected persisted user, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoresHashes(t *testing.T) {
	m := NewMemory(bcrypt.MinCost)
	_, err := m.Register(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if m.users["alice"] == "secret" {
		t.Fatal("password stored in clear text")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", m.Len())
	}
}
