package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ericfisherdev/envpush/internal/domain/model"
	"github.com/ericfisherdev/envpush/internal/domain/port/driven"
)

// --- Mock implementations ---

// fakeGitHub is a stateful in-memory stand-in for the GitHub environment API.
// Variables persist across calls so create-then-duplicate flows can be tested.
type fakeGitHub struct {
	mu    sync.Mutex
	calls []string

	repoID       int64
	repoErr      error
	envMissing   bool
	envErr       error
	createEnvErr error
	keyErr       error
	key          model.PublicKey

	secretErrs    map[string]error
	createVarErrs map[string]error
	updateVarErrs map[string]error

	secrets   map[string]model.EncryptedSecret
	variables map[string]string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		repoID:    42,
		key:       model.PublicKey{KeyID: "key-1", Key: "cHVibGljLWtleQ=="},
		secrets:   make(map[string]model.EncryptedSecret),
		variables: make(map[string]string),
	}
}

func (f *fakeGitHub) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGitHub) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGitHub) GetRepositoryID(_ context.Context, owner, repo string) (int64, error) {
	f.record("GetRepositoryID %s/%s", owner, repo)
	if f.repoErr != nil {
		return 0, f.repoErr
	}
	return f.repoID, nil
}

func (f *fakeGitHub) GetEnvironment(_ context.Context, _, _, env string) error {
	f.record("GetEnvironment %s", env)
	if f.envErr != nil {
		return f.envErr
	}
	if f.envMissing {
		return fmt.Errorf("environment %q: %w", env, driven.ErrEnvironmentNotFound)
	}
	return nil
}

func (f *fakeGitHub) CreateEnvironment(_ context.Context, _, _, env string) error {
	f.record("CreateEnvironment %s", env)
	if f.createEnvErr != nil {
		return f.createEnvErr
	}
	f.envMissing = false
	return nil
}

func (f *fakeGitHub) GetEnvironmentPublicKey(_ context.Context, repoID int64, env string) (model.PublicKey, error) {
	f.record("GetEnvironmentPublicKey %d %s", repoID, env)
	if f.keyErr != nil {
		return model.PublicKey{}, f.keyErr
	}
	return f.key, nil
}

func (f *fakeGitHub) SetEnvironmentSecret(_ context.Context, repoID int64, _ string, secret model.EncryptedSecret) error {
	f.record("SetEnvironmentSecret %d %s", repoID, secret.Name)
	if err := f.secretErrs[secret.Name]; err != nil {
		return err
	}
	f.mu.Lock()
	f.secrets[secret.Name] = secret
	f.mu.Unlock()
	return nil
}

func (f *fakeGitHub) CreateEnvironmentVariable(_ context.Context, repoID int64, _ string, item model.Item) error {
	f.record("CreateEnvironmentVariable %d %s", repoID, item.Name)
	if err := f.createVarErrs[item.Name]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.variables[item.Name]; ok {
		return fmt.Errorf("variable %s: %w", item.Name, driven.ErrVariableExists)
	}
	f.variables[item.Name] = item.Value
	return nil
}

func (f *fakeGitHub) UpdateEnvironmentVariable(_ context.Context, repoID int64, _ string, item model.Item) error {
	f.record("UpdateEnvironmentVariable %d %s", repoID, item.Name)
	if err := f.updateVarErrs[item.Name]; err != nil {
		return err
	}
	f.mu.Lock()
	f.variables[item.Name] = item.Value
	f.mu.Unlock()
	return nil
}

// fakeSealer prefixes plaintexts instead of encrypting them.
type fakeSealer struct {
	failOn map[string]bool
}

func (s *fakeSealer) Seal(publicKey, plaintext string) (string, error) {
	if s.failOn[plaintext] {
		return "", errors.New("seal anonymous: boom")
	}
	return "sealed(" + publicKey + "):" + plaintext, nil
}

type mockRunStore struct {
	mu    sync.Mutex
	saved []model.RunSnapshot
	err   error
}

func (m *mockRunStore) Save(_ context.Context, run model.RunSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, run)
	return m.err
}

func (m *mockRunStore) Get(_ context.Context, id string) (*model.RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.saved {
		if m.saved[i].ID == id {
			s := m.saved[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockRunStore) ListRecent(_ context.Context, _ int) ([]model.RunSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RunSnapshot(nil), m.saved...), m.err
}

func (m *mockRunStore) Saved() []model.RunSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RunSnapshot(nil), m.saved...)
}
