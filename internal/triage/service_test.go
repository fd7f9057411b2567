package triage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/frontline/internal/custdata"
	"github.com/linnemanlabs/frontline/internal/domain"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu      sync.Mutex
	results map[string]*Result
	steps   map[string][]ProgressStep
	putErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		results: make(map[string]*Result),
		steps:   make(map[string][]ProgressStep),
	}
}

func (m *mockStore) Get(_ context.Context, id string) (*Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func (m *mockStore) Put(_ context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	cp := *r
	m.results[r.ID] = &cp
	return nil
}

func (m *mockStore) ListByDomain(_ context.Context, domainID string, limit int) ([]*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Result
	for _, r := range m.results {
		if r.DomainID == domainID {
			cp := *r
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) AppendStep(_ context.Context, triageID string, _ int, step *ProgressStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[triageID] = append(m.steps[triageID], *step)
	return nil
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []*Result
	err   error
}

func (m *mockNotifier) Notify(_ context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, r)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockPublisher struct {
	mu    sync.Mutex
	calls []*Result
	err   error
}

func (m *mockPublisher) Publish(_ context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, r)
	return m.err
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func happyProvider() *mockProvider {
	return &mockProvider{
		responses: []*LLMResponse{
			textResponse("QUERY", 10, 2),
			textResponse(`{"reply":"Here is your statement."}`, 20, 10),
			textResponse(`{"valid":true,"reason":"fine"}`, 10, 5),
		},
	}
}

func newTestService(store Store, provider Provider, notifier Notifier, publisher Publisher) *Service {
	engine := NewEngine(provider, NewRouter(), log.Nop(), EngineHooks{})
	return NewService(store, engine, domain.NewRegistry(), custdata.NewStatic(), log.Nop(), nil, notifier, publisher)
}

func TestTriage_Sync(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(store, happyProvider(), nil, nil)

	result, err := svc.Triage(context.Background(), &SubmitRequest{
		Message:  "Can you explain these fees on my statement?",
		DomainID: "bny",
	}, nil)
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}

	if result.Status != StatusComplete {
		t.Errorf("status = %q, want %q", result.Status, StatusComplete)
	}
	if result.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if result.Reply != "Here is your statement." {
		t.Errorf("reply = %q", result.Reply)
	}

	// Final result and all step emissions are persisted.
	stored, ok, err := store.Get(context.Background(), result.ID)
	if err != nil || !ok {
		t.Fatalf("stored result not found: ok=%v err=%v", ok, err)
	}
	if stored.Status != StatusComplete {
		t.Errorf("stored status = %q, want %q", stored.Status, StatusComplete)
	}

	store.mu.Lock()
	stepCount := len(store.steps[result.ID])
	store.mu.Unlock()
	if stepCount != 2*len(Stages) {
		t.Errorf("persisted steps = %d, want %d", stepCount, 2*len(Stages))
	}
}

func TestTriage_OnStepForwarded(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMockStore(), happyProvider(), nil, nil)

	var forwarded int
	_, err := svc.Triage(context.Background(), &SubmitRequest{
		Message:  "question about fees",
		DomainID: "bny",
	}, func(ProgressStep) { forwarded++ })
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if forwarded != 2*len(Stages) {
		t.Errorf("forwarded steps = %d, want %d", forwarded, 2*len(Stages))
	}
}

func TestTriage_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMockStore(), happyProvider(), nil, nil)

	tests := []struct {
		name    string
		req     *SubmitRequest
		wantErr error
	}{
		{"empty message", &SubmitRequest{DomainID: "bny"}, ErrEmptyMessage},
		{"unknown domain", &SubmitRequest{Message: "hi", DomainID: "nope"}, ErrUnknownDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Triage(context.Background(), tt.req, nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("Triage err = %v, want %v", err, tt.wantErr)
			}
			if _, err := svc.Submit(context.Background(), tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTriage_PendingPutFailure(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.putErr = errors.New("db down")
	svc := newTestService(store, happyProvider(), nil, nil)

	if _, err := svc.Triage(context.Background(), &SubmitRequest{Message: "hi", DomainID: "bny"}, nil); err == nil {
		t.Fatal("expected error when the pending record cannot be stored")
	}
}

func TestSubmit_AsyncTriageCompletes(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := newTestService(store, happyProvider(), nil, nil)

	sr, err := svc.Submit(context.Background(), &SubmitRequest{
		Message:  "question about my statement",
		DomainID: "bny",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sr.ID == "" {
		t.Fatal("expected non-empty ID")
	}

	// The pending record is visible immediately.
	r, ok, _ := store.Get(context.Background(), sr.ID)
	if !ok {
		t.Fatal("expected pending record in store")
	}
	if r.Status == "" {
		t.Error("expected pending record to have a status")
	}

	// Wait for async triage to complete. Read only through the store to avoid
	// data races with the goroutine mutating the result.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, ok, _ := store.Get(context.Background(), sr.ID)
		if ok && r.Status == StatusComplete {
			if r.Reply != "Here is your statement." {
				t.Errorf("reply = %q", r.Reply)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("triage did not complete within deadline")
}

func TestFinish_PublisherCalledOnEveryRun(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	svc := newTestService(newMockStore(), happyProvider(), nil, pub)

	if _, err := svc.Triage(context.Background(), &SubmitRequest{Message: "routine question", DomainID: "bny"}, nil); err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if pub.count() != 1 {
		t.Errorf("publisher calls = %d, want 1", pub.count())
	}
}

func TestFinish_NotifierOnlyOnEscalation(t *testing.T) {
	t.Parallel()

	// Low-risk query: no notification.
	n := &mockNotifier{}
	svc := newTestService(newMockStore(), happyProvider(), n, nil)
	if _, err := svc.Triage(context.Background(), &SubmitRequest{Message: "routine question", DomainID: "bny"}, nil); err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if n.count() != 0 {
		t.Errorf("notifier calls = %d, want 0 for low risk", n.count())
	}

	// Critical-risk message: notification fires.
	n2 := &mockNotifier{}
	svc2 := newTestService(newMockStore(), happyProvider(), n2, nil)
	if _, err := svc2.Triage(context.Background(), &SubmitRequest{
		Message:  "fraud, unauthorized charges, emergency",
		DomainID: "bny",
	}, nil); err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if n2.count() != 1 {
		t.Errorf("notifier calls = %d, want 1 for critical risk", n2.count())
	}
}

func TestFinish_SideEffectErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	n := &mockNotifier{err: errors.New("slack down")}
	pub := &mockPublisher{err: errors.New("kafka down")}
	svc := newTestService(newMockStore(), happyProvider(), n, pub)

	result, err := svc.Triage(context.Background(), &SubmitRequest{
		Message:  "fraud, unauthorized charges, emergency",
		DomainID: "bny",
	}, nil)
	if err != nil {
		t.Fatalf("Triage must not propagate side-effect errors: %v", err)
	}
	if result.Status != StatusComplete {
		t.Errorf("status = %q, want %q", result.Status, StatusComplete)
	}
}

func TestGet_Passthrough(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.results["t-1"] = &Result{ID: "t-1", DomainID: "bny", Status: StatusComplete}
	svc := newTestService(store, &mockProvider{}, nil, nil)

	got, ok, err := svc.Get(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected result to be found")
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want t-1", got.ID)
	}

	_, ok, err = svc.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing ID")
	}
}

func TestRecent_Passthrough(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.results["t-1"] = &Result{ID: "t-1", DomainID: "bny"}
	store.results["t-2"] = &Result{ID: "t-2", DomainID: "zepto"}
	svc := newTestService(store, &mockProvider{}, nil, nil)

	got, err := svc.Recent(context.Background(), "bny", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Errorf("results = %v, want just t-1", got)
	}
}
