package redis_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis speaks just enough RESP for the record store: HSET, HGET,
// HGETALL, AUTH, SELECT.
type fakeRedis struct {
	ln net.Listener

	mu     sync.Mutex
	hashes map[string]map[string]string
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeRedis{ln: ln, hashes: make(map[string]map[string]string)}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeRedis) hostPort(t *testing.T) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(f.ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		cmd, err := readCommand(r)
		if err != nil {
			return
		}
		f.reply(w, cmd)
		if w.Flush() != nil {
			return
		}
	}
}

func (f *fakeRedis) reply(w *bufio.Writer, cmd []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(cmd[0]) {
	case "AUTH", "SELECT":
		fmt.Fprint(w, "+OK\r\n")
	case "HSET":
		key, field, value := cmd[1], cmd[2], cmd[3]
		if f.hashes[key] == nil {
			f.hashes[key] = make(map[string]string)
		}
		f.hashes[key][field] = value
		fmt.Fprint(w, ":1\r\n")
	case "HGET":
		value, ok := f.hashes[cmd[1]][cmd[2]]
		if !ok {
			fmt.Fprint(w, "$-1\r\n")
			return
		}
		fmt.Fprintf(w, "$%d\r\n%s\r\n", len(value), value)
	case "HGETALL":
		hash := f.hashes[cmd[1]]
		fmt.Fprintf(w, "*%d\r\n", len(hash)*2)
		for field, value := range hash {
			fmt.Fprintf(w, "$%d\r\n%s\r\n", len(field), field)
			fmt.Fprintf(w, "$%d\r\n%s\r\n", len(value), value)
		}
	default:
		fmt.Fprintf(w, "-ERR unknown command %q\r\n", cmd[0])
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "*")))
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sizeLine, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(sizeLine, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func newTestStore(t *testing.T) *redis.RecordStore {
	t.Helper()
	host, port := startFakeRedis(t).hostPort(t)
	store, err := redis.NewRecordStore(redis.Config{Host: host, Port: port})
	require.NoError(t, err)
	return store
}

func TestRecordStore_SaveAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &docatlas.ExtractionRecord{
		ID:        "r1",
		SourceURL: "https://docs.example.com/api",
		Endpoints: []docatlas.Endpoint{
			{Method: "GET", Path: "/api/users", Confidence: 0.9},
		},
		Method:      docatlas.ExtractionMethodAnalysis,
		ExtractedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveRecord(ctx, rec))

	got, err := store.FindRecordByURL(ctx, rec.SourceURL)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	require.Len(t, got.Endpoints, 1)
	assert.Equal(t, "GET", got.Endpoints[0].Method)
}

func TestRecordStore_FindRecordByURL_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindRecordByURL(context.Background(), "https://docs.example.com/missing")
	require.Error(t, err)
	assert.Equal(t, docatlas.ENOTFOUND, docatlas.ErrorCode(err))
}

func TestRecordStore_SaveRecord_Overwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url := "https://docs.example.com/api"
	first := &docatlas.ExtractionRecord{
		ID:        "r1",
		SourceURL: url,
		Method:    docatlas.ExtractionMethodAnalysis,
		Endpoints: []docatlas.Endpoint{{Method: "GET", Path: "/a"}},
	}
	require.NoError(t, store.SaveRecord(ctx, first))

	second := &docatlas.ExtractionRecord{
		ID:        "r2",
		SourceURL: url,
		Method:    docatlas.ExtractionMethodAnalysis,
		Endpoints: []docatlas.Endpoint{{Method: "POST", Path: "/a"}},
	}
	require.NoError(t, store.SaveRecord(ctx, second))

	got, err := store.FindRecordByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "r2", got.ID)

	recs, err := store.FindRecords(ctx, docatlas.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRecordStore_FindRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	urls := []string{
		"https://docs.example.com/api/users",
		"https://docs.example.com/api/orders",
		"https://other.example.com/reference",
	}
	for i, u := range urls {
		require.NoError(t, store.SaveRecord(ctx, &docatlas.ExtractionRecord{
			ID:          fmt.Sprintf("r%d", i),
			SourceURL:   u,
			Method:      docatlas.ExtractionMethodAnalysis,
			ExtractedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("MostRecentFirst", func(t *testing.T) {
		recs, err := store.FindRecords(ctx, docatlas.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, urls[2], recs[0].SourceURL)
	})

	t.Run("ByURLPrefix", func(t *testing.T) {
		prefix := "https://docs.example.com/"
		recs, err := store.FindRecords(ctx, docatlas.RecordFilter{URLPrefix: &prefix})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("LimitAndOffset", func(t *testing.T) {
		recs, err := store.FindRecords(ctx, docatlas.RecordFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, urls[1], recs[0].SourceURL)
	})
}

func TestNewRecordStore_RequiresHost(t *testing.T) {
	_, err := redis.NewRecordStore(redis.Config{})
	require.Error(t, err)
	assert.Equal(t, docatlas.EINVALID, docatlas.ErrorCode(err))
}

func TestRecordStore_UnreachableServer(t *testing.T) {
	store, err := redis.NewRecordStore(redis.Config{
		Host:    "127.0.0.1",
		Port:    "1",
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = store.FindRecordByURL(context.Background(), "https://docs.example.com")
	require.Error(t, err)
	assert.Equal(t, docatlas.EUNAVAILABLE, docatlas.ErrorCode(err))
}
