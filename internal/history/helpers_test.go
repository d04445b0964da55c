package history

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stocklite/stocklite/internal/model"
	"github.com/stocklite/stocklite/internal/store"
	"github.com/stocklite/stocklite/internal/testutil"
)

var (
	jst = time.FixedZone("JST", 9*3600)
	now = time.Date(2026, 10, 15, 10, 0, 0, 0, jst)
)

type fixture struct {
	rec   *Recorder
	store *store.Store
	clock *testutil.ManualClock
	logs  *syncBuffer
}

// syncBuffer is a goroutine-safe log sink; the retention worker logs too.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	f := &fixture{
		store: st,
		clock: testutil.NewManualClock(now),
		logs:  &syncBuffer{},
	}
	base := []Option{
		WithClock(f.clock),
		WithIDGenerator(testutil.NewSequentialIDs("ev")),
		WithLocation(jst),
		WithLogger(slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}
	f.rec = New(st, append(base, opts...)...)

	t.Cleanup(func() {
		f.rec.Close()
		st.Close()
	})
	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func qtyEvent(itemID string, delta int64, at time.Time) model.NewEvent {
	typ := model.EventIncrement
	before := int64(10)
	if delta < 0 {
		typ = model.EventDecrement
	}
	return model.NewEvent{
		ItemID:    itemID,
		Type:      typ,
		Delta:     delta,
		QtyBefore: before,
		QtyAfter:  before + delta,
		Name:      "name-" + itemID,
		Category:  "キッチン",
		At:        at,
	}
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
