package sessionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	redistimeseries "github.com/RedisTimeSeries/redistimeseries-go"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

type memorySink struct {
	entries []Entry
	err     error
}

func (m *memorySink) Write(ctx context.Context, e Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func sampleOutput(t *testing.T) *scenario.Output {
	t.Helper()
	out, err := scenario.Simulate(context.Background(), "dc_motor", control.Gains{Kp: 1})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return out
}

func TestLoggerStampsEntries(t *testing.T) {
	sink := &memorySink{}
	l := New(sink)
	l.now = func() time.Time { return time.Unix(100, 0) }

	e, err := l.Log(context.Background(), Entry{System: "dc_motor"})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if e.ID == "" || !e.CreatedAt.Equal(time.Unix(100, 0)) {
		t.Errorf("entry not stamped: %+v", e)
	}

	second, _ := l.Log(context.Background(), Entry{System: "dc_motor"})
	if second.ID == e.ID {
		t.Errorf("expected distinct ids, got %s twice", e.ID)
	}
	if len(sink.entries) != 2 {
		t.Errorf("expected 2 entries written, got %d", len(sink.entries))
	}
}

func TestLoggerJoinsFailures(t *testing.T) {
	errDown := errors.New("store down")
	ok := &memorySink{}
	l := New(&memorySink{err: errDown}, ok)

	_, err := l.Log(context.Background(), Entry{System: "rlc_circuit"})
	if !errors.Is(err, errDown) {
		t.Errorf("expected joined sink error, got %v", err)
	}
	if len(ok.entries) != 1 {
		t.Error("a failing sink must not stop the others")
	}
}

func TestLoggerWithoutSinks(t *testing.T) {
	var nilLogger *Logger
	if nilLogger.Enabled() || New().Enabled() {
		t.Error("logger without sinks should report disabled")
	}
	if _, err := New().Log(context.Background(), Entry{}); err != nil {
		t.Errorf("disabled logger should not fail: %v", err)
	}
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}

func TestBuntStoreRecent(t *testing.T) {
	store, err := OpenBunt(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	out := sampleOutput(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := Entry{
			ID:        string(rune('a' + i)),
			System:    "dc_motor",
			Input:     control.Gains{Kp: float64(i)},
			Output:    out,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := store.Write(context.Background(), e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	recent, err := store.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	for i, want := range []string{"e", "d", "c"} {
		if recent[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, recent[i].ID)
		}
	}
	if len(recent[0].Output.Response) != len(out.Response) {
		t.Error("stored output lost samples")
	}

	all, _ := store.Recent(0)
	if len(all) != 5 {
		t.Errorf("expected all 5 entries, got %d", len(all))
	}

	got, err := store.Get("b")
	if err != nil || got.Input.Kp != 1 {
		t.Errorf("get b: %+v, %v", got, err)
	}
	if _, err := store.Get("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuntStoreCancelled(t *testing.T) {
	store, err := OpenBunt(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Write(ctx, Entry{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type fakeTS struct {
	existing map[string]bool
	created  []string
	labels   map[string]map[string]string
	points   map[string][]float64
	addErr   error
}

func newFakeTS() *fakeTS {
	return &fakeTS{
		existing: map[string]bool{},
		labels:   map[string]map[string]string{},
		points:   map[string][]float64{},
	}
}

func (f *fakeTS) Info(key string) (redistimeseries.KeyInfo, error) {
	if f.existing[key] {
		return redistimeseries.KeyInfo{}, nil
	}
	return redistimeseries.KeyInfo{}, errors.New("ERR TSDB: the key does not exist")
}

func (f *fakeTS) CreateKeyWithOptions(key string, options redistimeseries.CreateOptions) error {
	f.existing[key] = true
	f.created = append(f.created, key)
	f.labels[key] = options.Labels
	return nil
}

func (f *fakeTS) AddAutoTs(key string, value float64) (int64, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.points[key] = append(f.points[key], value)
	return int64(len(f.points[key])), nil
}

func TestRedisSink(t *testing.T) {
	client := newFakeTS()
	client.existing[SeriesKey("dc_motor", "iae")] = true
	sink := newRedisSink(client)

	out := sampleOutput(t)
	e := Entry{System: "dc_motor", Output: out}
	for i := 0; i < 2; i++ {
		if err := sink.Write(context.Background(), e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	if len(client.created) != len(out.Metrics)-1 {
		t.Errorf("expected %d series created once, got %v", len(out.Metrics)-1, client.created)
	}
	key := SeriesKey("dc_motor", "overshoot")
	if client.labels[key]["metric"] != "overshoot" {
		t.Errorf("missing labels on %s: %v", key, client.labels[key])
	}
	if got := client.points[key]; len(got) != 2 || got[0] != out.Metrics["overshoot"] {
		t.Errorf("unexpected points for %s: %v", key, got)
	}
}

func TestRedisSinkErrors(t *testing.T) {
	client := newFakeTS()
	client.addErr = errors.New("connection refused")
	sink := newRedisSink(client)

	err := sink.Write(context.Background(), Entry{System: "rlc_circuit", Output: sampleOutput(t)})
	if !errors.Is(err, client.addErr) {
		t.Errorf("expected add error, got %v", err)
	}

	if err := sink.Write(context.Background(), Entry{System: "rlc_circuit"}); err != nil {
		t.Errorf("entry without output should be skipped, got %v", err)
	}
}
