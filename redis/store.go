// Package redis implements a Redis-backed record store over a minimal
// RESP client. It exists for deployments where sessions on several hosts
// share one extraction cache; no Redis client library dependency is
// worth carrying for the four commands this needs.
package redis

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jsliwa/docatlas"
)

const (
	defaultKey     = "docatlas:records"
	defaultTimeout = 5 * time.Second
)

// Config locates the Redis server holding the record hash.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

var _ docatlas.RecordStore = (*RecordStore)(nil)

// RecordStore stores extraction records as JSON fields of a single Redis
// hash keyed by source URL. Connections are dialed per operation.
type RecordStore struct {
	addr     string
	password string
	db       int
	key      string
	timeout  time.Duration
}

// NewRecordStore creates a Redis-backed record store.
func NewRecordStore(cfg Config) (*RecordStore, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, docatlas.Errorf(docatlas.EINVALID, "redis host is required")
	}
	port := cfg.Port
	if port == "" {
		port = "6379"
	}
	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &RecordStore{
		addr:     net.JoinHostPort(cfg.Host, port),
		password: cfg.Password,
		db:       cfg.DB,
		key:      key,
		timeout:  timeout,
	}, nil
}

// SaveRecord inserts or overwrites the record for its source URL.
func (s *RecordStore) SaveRecord(ctx context.Context, rec *docatlas.ExtractionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *respConn) error {
		if err := conn.send("HSET", s.key, rec.SourceURL, string(data)); err != nil {
			return err
		}
		_, err := conn.read()
		return err
	})
}

// FindRecordByURL retrieves the record for a source URL. Returns
// ENOTFOUND on a miss.
func (s *RecordStore) FindRecordByURL(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
	var rec *docatlas.ExtractionRecord
	err := s.withConn(ctx, func(conn *respConn) error {
		if err := conn.send("HGET", s.key, url); err != nil {
			return err
		}
		reply, err := conn.read()
		if err != nil {
			return err
		}
		switch v := reply.(type) {
		case nil:
			return docatlas.Errorf(docatlas.ENOTFOUND, "no record for %s", url)
		case string:
			rec = &docatlas.ExtractionRecord{}
			return json.Unmarshal([]byte(v), rec)
		default:
			return fmt.Errorf("unexpected redis response type %T", v)
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, most recently
// extracted first. Filtering happens client-side over the full hash,
// which is fine at documentation-site scale.
func (s *RecordStore) FindRecords(ctx context.Context, filter docatlas.RecordFilter) ([]*docatlas.ExtractionRecord, error) {
	var recs []*docatlas.ExtractionRecord
	err := s.withConn(ctx, func(conn *respConn) error {
		if err := conn.send("HGETALL", s.key); err != nil {
			return err
		}
		reply, err := conn.read()
		if err != nil {
			return err
		}
		arr, ok := reply.([]interface{})
		if !ok {
			return nil
		}
		for i := 0; i+1 < len(arr); i += 2 {
			value, ok := arr[i+1].(string)
			if !ok {
				continue
			}
			var rec docatlas.ExtractionRecord
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				continue
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	filtered := recs[:0]
	for _, rec := range recs {
		if filter.SourceURL != nil && rec.SourceURL != *filter.SourceURL {
			continue
		}
		if filter.URLPrefix != nil && !strings.HasPrefix(rec.SourceURL, *filter.URLPrefix) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ExtractedAt.After(filtered[j].ExtractedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(filtered) {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

func (s *RecordStore) withConn(ctx context.Context, fn func(*respConn) error) error {
	conn, err := dialRESP(ctx, s.addr, s.timeout)
	if err != nil {
		return docatlas.Errorf(docatlas.EUNAVAILABLE, "redis unreachable at %s: %v", s.addr, err)
	}
	defer conn.Close()
	if err := conn.initialize(s.password, s.db); err != nil {
		return err
	}
	return fn(conn)
}

type respConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

func dialRESP(ctx context.Context, addr string, timeout time.Duration) (*respConn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	c, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &respConn{
		conn:   c,
		reader: bufio.NewReader(c),
		writer: bufio.NewWriter(c),
	}, nil
}

func (c *respConn) initialize(password string, db int) error {
	if password != "" {
		if err := c.send("AUTH", password); err != nil {
			return err
		}
		if _, err := c.read(); err != nil {
			return err
		}
	}
	if db != 0 {
		if err := c.send("SELECT", strconv.Itoa(db)); err != nil {
			return err
		}
		if _, err := c.read(); err != nil {
			return err
		}
	}
	return nil
}

func (c *respConn) send(cmd string, args ...string) error {
	if _, err := fmt.Fprintf(c.writer, "*%d\r\n", len(args)+1); err != nil {
		return err
	}
	if err := writeBulk(c.writer, strings.ToUpper(cmd)); err != nil {
		return err
	}
	for _, arg := range args {
		if err := writeBulk(c.writer, arg); err != nil {
			return err
		}
	}
	return c.writer.Flush()
}

func writeBulk(w *bufio.Writer, value string) error {
	_, err := fmt.Fprintf(w, "$%d\r\n%s\r\n", len(value), value)
	return err
}

func (c *respConn) read() (interface{}, error) {
	prefix, err := c.reader.ReadByte()
	if err != nil {
		return nil, err
	}
	switch prefix {
	case '+':
		return readLine(c.reader)
	case '-':
		line, err := readLine(c.reader)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(line)
	case ':':
		line, err := readLine(c.reader)
		if err != nil {
			return nil, err
		}
		return strconv.ParseInt(line, 10, 64)
	case '$':
		line, err := readLine(c.reader)
		if err != nil {
			return nil, err
		}
		length, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		if length == -1 {
			return nil, nil
		}
		buf := make([]byte, length+2)
		if _, err := io.ReadFull(c.reader, buf); err != nil {
			return nil, err
		}
		return string(buf[:length]), nil
	case '*':
		line, err := readLine(c.reader)
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		if count == -1 {
			return nil, nil
		}
		items := make([]interface{}, 0, count)
		for i := 0; i < count; i++ {
			item, err := c.read()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected redis prefix %q", prefix)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

func (c *respConn) Close() error {
	return c.conn.Close()
}
