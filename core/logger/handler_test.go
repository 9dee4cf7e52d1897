package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return got
}

func TestHandlerJSONEventAndMeta(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newHandler(buf, slog.LevelInfo, false)).With("component", "tg")
	ctx := WithMeta(context.Background(), Meta{RID: "5:3:3", UpdateID: 5, UserID: 3, ChatID: 3})

	log.LogAttrs(ctx, slog.LevelWarn, "tg.cooldown",
		slog.String("status", "denied"),
		slog.Int("wait_seconds", 3),
	)

	got := decodeLine(t, buf)
	want := map[string]any{
		"level":        "WARN",
		"component":    "tg",
		"event":        "tg.cooldown",
		"status":       "denied",
		"rid":          "5:3:3",
		"wait_seconds": float64(3),
		"update_id":    float64(5),
		"user_id":      float64(3),
		"chat_id":      float64(3),
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v (line %s)", k, got[k], v, buf.String())
		}
	}
	if _, ok := got["msg"]; ok {
		t.Fatalf("msg should be folded into event: %s", buf.String())
	}
	if ts, _ := got["ts"].(string); !strings.HasSuffix(ts, "Z") {
		t.Fatalf("ts should be UTC: %q", ts)
	}
}

func TestHandlerRecordAttrsWin(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newHandler(buf, slog.LevelInfo, false))
	ctx := WithMeta(context.Background(), Meta{UserID: 3, Handler: "start"})

	log.LogAttrs(ctx, slog.LevelInfo, "ignored",
		slog.String("event", "relay.sent"),
		slog.Int64("user_id", 42),
	)

	got := decodeLine(t, buf)
	if got["event"] != "relay.sent" {
		t.Fatalf("event = %v", got["event"])
	}
	if got["user_id"] != float64(42) {
		t.Fatalf("user_id = %v, want record value", got["user_id"])
	}
	if got["handler"] != "start" {
		t.Fatalf("handler = %v", got["handler"])
	}
	if strings.Count(buf.String(), `"user_id"`) != 1 {
		t.Fatalf("user_id duplicated: %s", buf.String())
	}
}

func TestHandlerTextDurationsAndEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newHandler(buf, slog.LevelInfo, true)).With("component", "relay")

	log.LogAttrs(context.Background(), slog.LevelInfo, "",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("elapsed_ms", 3*time.Millisecond),
		slog.Duration("delay", 2*time.Second),
		slog.String("dest", ""),
	)

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{
		"component=relay",
		"event=unknown",
		"duration_ms=2",
		"elapsed_ms=3",
		"delay_ms=2000",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	if strings.Contains(line, "dest=") {
		t.Fatalf("empty strings should be dropped: %s", line)
	}
}

func TestHandlerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	var lv slog.LevelVar
	lv.Set(slog.LevelWarn)
	log := slog.New(newHandler(buf, &lv, false))

	log.Info("fsm.dispatch")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn: %s", buf.String())
	}
	log.Error("send.fail")
	if !strings.Contains(buf.String(), `"event":"send.fail"`) {
		t.Fatalf("error should pass: %s", buf.String())
	}
}
