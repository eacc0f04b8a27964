package logger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type lineWriter interface {
	Write(p []byte) error
}

type handlerConfig struct {
	level    slog.Leveler
	writer   lineWriter
	format   logFormat
	keyOrder []string
}

type field struct {
	key string
	val any
}

// structuredHandler renders records as single JSON or key=value lines with a
// stable key order. Attributes bound through With are normalised once.
type structuredHandler struct {
	cfg    handlerConfig
	bound  []field
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, rec slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	asJSON := h.cfg.format == formatJSON

	r := make(record, 16)
	ts := rec.Time.UTC()
	r["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	r["level"] = normalizeLevel(rec.Level.String())
	if asJSON {
		r["ts_unix_nano"] = ts.UnixNano()
	}
	for _, f := range h.bound {
		r[f.key] = f.val
	}
	rec.Attrs(func(a slog.Attr) bool {
		h.collect(h.prefix, a, func(f field) { r[f.key] = f.val })
		return true
	})
	MetaFrom(ctx).fill(r)

	r.compactRID(asJSON)
	if r.str("event") == "" {
		r["event"] = cmp.Or(rec.Message, "unknown")
	}
	if r.str("component") == "" {
		r["component"] = "app"
	}
	r.normalize()
	r.prune()

	var line []byte
	if asJSON {
		data, err := r.json(h.cfg.keyOrder)
		if err != nil {
			return err
		}
		line = data
	} else {
		line = r.kv(h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.bound = append([]field(nil), h.bound...)
	for _, a := range attrs {
		h.collect(h.prefix, a, func(f field) { clone.bound = append(clone.bound, f) })
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// collect flattens groups into dotted keys and emits normalised fields.
func (h *structuredHandler) collect(prefix string, a slog.Attr, emit func(field)) {
	v := a.Value.Resolve()
	key := prefix
	if a.Key != "" {
		key = joinKey(prefix, a.Key)
	}
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			h.collect(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := normalizeAttr(key, v); ok {
		emit(field{key: k, val: val})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func normalizeAttr(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, RedactToken(strings.TrimSpace(v.String())), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return key, nil, false
		case error:
			return key, RedactToken(x.Error()), true
		case string:
			return key, RedactToken(strings.TrimSpace(x)), true
		case time.Duration:
			return durationKey(key), RoundMS(x).Milliseconds(), true
		case fmt.Stringer:
			return key, x.String(), true
		default:
			return key, fmt.Sprint(x), true
		}
	default:
		return key, v.Any(), true
	}
}

// durationKey suffixes duration attributes with _ms since values are emitted as integer milliseconds.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

// record is one log line before encoding.
type record map[string]any

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (r record) setDefault(key string, val any) {
	if _, ok := r[key]; !ok {
		r[key] = val
	}
}

// compactRID shortens rid; JSON lines keep the original as rid_full.
func (r record) compactRID(keepFull bool) {
	rid := r.str("rid")
	if rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == rid {
		return
	}
	if keepFull {
		r.setDefault("rid_full", rid)
	}
	r["rid"] = compact
}

// normalize lower-cases enumerated fields. Unknown status values are kept,
// unknown values of the strict enums are dropped.
func (r record) normalize() {
	r["level"] = normalizeLevel(r.str("level"))
	if s := r.str("status"); s != "" {
		r["status"] = normalizeStatus(s)
	}
	for key, allowed := range strictEnums {
		raw := r.str(key)
		if raw == "" {
			continue
		}
		if v, ok := allowed[strings.ToLower(strings.TrimSpace(raw))]; ok {
			r[key] = v
		} else {
			delete(r, key)
		}
	}
}

func (r record) prune() {
	for k, v := range r {
		switch x := v.(type) {
		case nil:
			delete(r, k)
		case string:
			if x == "" {
				delete(r, k)
			}
		case fmt.Stringer:
			if x.String() == "" {
				delete(r, k)
			}
		}
	}
}

// keys returns order first, then the remaining keys sorted.
func (r record) keys(order []string) []string {
	out := make([]string, 0, len(r))
	seen := make(map[string]struct{}, len(r))
	for _, k := range order {
		if _, ok := r[k]; ok {
			if _, dup := seen[k]; !dup {
				out = append(out, k)
				seen[k] = struct{}{}
			}
		}
	}
	n := len(out)
	for k := range r {
		if _, ok := seen[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out[n:])
	return out
}

func (r record) json(order []string) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys(order) {
		data, err := json.Marshal(r[k])
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(data)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (r record) kv(order []string) []byte {
	var b strings.Builder
	for i, k := range r.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(r[k]))
	}
	return []byte(b.String())
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		s = fmt.Sprint(x)
	}
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
