package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/cubespin/internal/capability"
	"github.com/Mr-Dark-debug/cubespin/internal/cube"
	"github.com/Mr-Dark-debug/cubespin/internal/database"
	"github.com/Mr-Dark-debug/cubespin/internal/frame"
	"github.com/Mr-Dark-debug/cubespin/internal/scene"
)

// newTestServer builds a cube on a loop that ticks every millisecond in
// the background. The cube is only touched through the server.
func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	loop := frame.NewLoop()
	doc := scene.NewDocument()
	doc.Create("the-cube", nil, "cube")

	c, err := cube.Open("", cube.Config{},
		cube.WithScheduler(loop),
		cube.WithResolver(doc),
		cube.WithProbe(capability.Supported),
	)
	if err != nil {
		t.Fatalf("cube.Open failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx, time.Millisecond)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return NewServer(Config{Timeout: 2 * time.Second}, loop, c, opts...)
}

func newTestStore(t *testing.T) *database.DBService {
	t.Helper()
	db, err := database.NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func status(t *testing.T, s *Server) StatusReply {
	t.Helper()
	body, err := s.Execute(context.Background(), MsgStatus, nil)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var reply StatusReply
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatalf("unmarshaling status: %v", err)
	}
	return reply
}

// waitFor polls the status until cond holds.
func waitFor(t *testing.T, s *Server, what string, cond func(StatusReply) bool) StatusReply {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		st := status(t, s)
		if cond(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last status %+v", what, st)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWireFraming(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, MsgSpin, []byte(`{"target":{"y":90}}`)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	raw := buf.Bytes()
	if raw[0] != 0x05 || raw[1] != 0 || raw[2] != 0 || raw[3] != 0 || raw[4] != 19 {
		t.Fatalf("unexpected header % x", raw[:5])
	}

	typ, payload, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if typ != MsgSpin || string(payload) != `{"target":{"y":90}}` {
		t.Errorf("got %s %q", typ, payload)
	}

	if _, _, err := ReadMessage(&buf); err != io.EOF {
		t.Errorf("expected io.EOF on empty stream, got %v", err)
	}

	oversized := []byte{byte(MsgApply), 0xff, 0xff, 0xff, 0xff}
	if _, _, err := ReadMessage(bytes.NewReader(oversized)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestParseMessageType(t *testing.T) {
	for _, name := range []string{"apply", "rotate", "focus", "defocus", "spin", "status"} {
		typ, ok := ParseMessageType(name)
		if !ok || typ.String() != name {
			t.Errorf("ParseMessageType(%q) = %s, %v", name, typ, ok)
		}
	}
	if _, ok := ParseMessageType("error"); ok {
		t.Error("error is a reply type, not a command")
	}
	if got := MessageType(0x42).String(); got != "0x42" {
		t.Errorf("unknown type String: got %q", got)
	}
}

func TestNetwork(t *testing.T) {
	if got := Network("/tmp/cubespin.sock"); got != "unix" {
		t.Errorf("socket path: got %s", got)
	}
	if got := Network("127.0.0.1:9876"); got != "tcp" {
		t.Errorf("host:port: got %s", got)
	}
}

func TestExecuteApplyAndStatus(t *testing.T) {
	s := newTestServer(t)

	if _, err := s.Execute(context.Background(), MsgApply, []byte(`{"side":"side-1"}`)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	st := status(t, s)
	if st.Angles != [3]float64{0, 90, 0} {
		t.Errorf("expected side-1 angles, got %v", st.Angles)
	}
	if st.Mode != "idle" || st.Focused {
		t.Errorf("expected idle and unfocused, got %s focused=%v", st.Mode, st.Focused)
	}
	if st.Selector != "#the-cube" {
		t.Errorf("Selector: got %s", st.Selector)
	}
}

func TestExecuteRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	_, err := s.Execute(context.Background(), MsgApply, []byte(`{"side":"side-7"}`))
	if err == nil || !strings.Contains(err.Error(), "side-7") {
		t.Errorf("expected invalid side error, got %v", err)
	}
	if _, err := s.Execute(context.Background(), MsgRotate, []byte(`{"direction":"up"}`)); err == nil {
		t.Error("expected unknown direction error")
	}
	if _, err := s.Execute(context.Background(), MsgRotate, []byte(`{"speeds":{"w":100}}`)); err == nil {
		t.Error("expected unknown axis error")
	}
	if _, err := s.Execute(context.Background(), MsgSpin, []byte(`{"easing":"bounce"}`)); err == nil {
		t.Error("expected unknown easing error")
	}
	if _, err := s.Execute(context.Background(), MessageType(0x42), nil); err == nil {
		t.Error("expected unknown type error")
	}

	if st := status(t, s); st.Angles != [3]float64{} {
		t.Errorf("rejected commands changed the orientation: %v", st.Angles)
	}
	if m := s.Metrics(); m.CommandsFailed != 5 || m.CommandsApplied != 0 {
		t.Errorf("expected 5 failed, 0 applied, got %+v", m)
	}
}

func TestRotateThenSpinResumes(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.Execute(ctx, MsgRotate, []byte(`{"speeds":{"x":0,"y":1000,"z":0}}`)); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if st := status(t, s); st.Mode != "rotating" {
		t.Fatalf("expected rotating, got %s", st.Mode)
	}

	if _, err := s.Execute(ctx, MsgSpin, []byte(`{"target":{"x":90},"speed":500,"resume":true}`)); err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	st := status(t, s)
	if st.Mode != "transitioning" && st.Mode != "rotating" {
		t.Fatalf("unexpected mode after spin: %s", st.Mode)
	}

	waitFor(t, s, "rotation to resume with x at 90", func(st StatusReply) bool {
		return st.Mode == "rotating" && st.Angles[0] == 90
	})
}

func TestFocusAndDefocus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.Execute(ctx, MsgFocus, []byte(`{"spin_to":"side-2","speed":1000}`)); err != nil {
		t.Fatalf("focus failed: %v", err)
	}
	st := waitFor(t, s, "focus", func(st StatusReply) bool { return st.Focused })
	if st.Angles != [3]float64{90, 0, 0} {
		t.Errorf("expected side-2 angles, got %v", st.Angles)
	}

	if _, err := s.Execute(ctx, MsgDefocus, nil); err != nil {
		t.Fatalf("defocus failed: %v", err)
	}
	if st := status(t, s); st.Focused {
		t.Error("still focused after defocus")
	}

	if _, err := s.Execute(ctx, MsgFocus, []byte(`{"spin_to":"side-9"}`)); err == nil {
		t.Error("expected invalid side error from focus")
	}
}

func TestServeConnOverPipe(t *testing.T) {
	s := newTestServer(t)
	serverConn, clientConn := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.ServeConn(ctx, serverConn)
		close(done)
	}()
	defer func() {
		cancel()
		clientConn.Close()
		<-done
	}()

	client := NewClient(clientConn, 2*time.Second)

	// Non-numeric components are coerced to zero.
	if _, err := client.SendRaw(MsgApply, []byte(`{"angles":{"x":"abc","y":45,"z":"10"}}`)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	st, err := client.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if st.Angles != [3]float64{0, 45, 10} {
		t.Errorf("expected (0, 45, 10), got %v", st.Angles)
	}

	_, err = client.Send(MsgApply, ApplyCommand{Side: "side-7"})
	if err == nil || !strings.Contains(err.Error(), "side-7") {
		t.Errorf("expected error naming side-7, got %v", err)
	}

	// The connection survives a failed command.
	if _, err := client.Send(MsgApply, ApplyCommand{Side: "side-6"}); err != nil {
		t.Fatalf("apply after error failed: %v", err)
	}
	st, err = client.Status()
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if st.Display != [3]float64{0, 180, 0} {
		t.Errorf("expected side-6, got %v", st.Display)
	}
}

func TestCommandsAreJournaled(t *testing.T) {
	db := newTestStore(t)
	s := newTestServer(t, WithStore(db))
	ctx := context.Background()

	if _, err := s.Execute(ctx, MsgApply, []byte(`{"side":"side-3"}`)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := s.Execute(ctx, MsgApply, []byte(`{"side":"side-7"}`)); err == nil {
		t.Fatal("expected failure")
	}

	pending, err := db.GetPendingCommands()
	if err != nil {
		t.Fatalf("GetPendingCommands failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected every command committed, %d pending", len(pending))
	}
}

func TestReplayPendingCommands(t *testing.T) {
	db := newTestStore(t)
	if _, err := db.WritePendingCommand("apply", []byte(`{"side":"side-6"}`)); err != nil {
		t.Fatalf("WritePendingCommand failed: %v", err)
	}
	if _, err := db.WritePendingCommand("teleport", []byte(`{}`)); err != nil {
		t.Fatalf("WritePendingCommand failed: %v", err)
	}

	s := newTestServer(t, WithStore(db))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, s, "replayed apply", func(st StatusReply) bool {
		return st.Angles == [3]float64{0, 180, 0}
	})
	s.Stop()

	if got := s.Metrics().CommandsReplayed; got != 1 {
		t.Errorf("CommandsReplayed: expected 1, got %d", got)
	}
	pending, err := db.GetPendingCommands()
	if err != nil {
		t.Fatalf("GetPendingCommands failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending commands after replay, got %d", len(pending))
	}
}

func TestMetricsHandler(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.Execute(context.Background(), MsgApply, []byte(`{"side":"side-2"}`)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("/health: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "cubespin_commands_applied_total 1\n") {
		t.Errorf("/metrics missing applied counter:\n%s", body)
	}
	if !strings.Contains(body, "# TYPE cubespin_frames gauge") {
		t.Errorf("/metrics missing frames gauge:\n%s", body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var decoded struct {
		Control Metrics `json:"control"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("/api/metrics: %v", err)
	}
	if decoded.Control.CommandsApplied != 1 {
		t.Errorf("/api/metrics applied: got %d", decoded.Control.CommandsApplied)
	}
}

func TestTimedOutCommandIsNotApplied(t *testing.T) {
	loop := frame.NewLoop()
	doc := scene.NewDocument()
	doc.Create("the-cube", nil, "cube")
	c, err := cube.Open("", cube.Config{},
		cube.WithScheduler(loop),
		cube.WithResolver(doc),
		cube.WithProbe(capability.Supported),
	)
	if err != nil {
		t.Fatalf("cube.Open failed: %v", err)
	}
	before := c.Orientation()
	db := newTestStore(t)
	// nothing ticks the loop until the command has timed out
	s := NewServer(Config{Timeout: 20 * time.Millisecond}, loop, c, WithStore(db))

	_, err = s.Execute(context.Background(), MsgApply, []byte(`{"side":"side-1"}`))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	loop.Step(3)
	if got := c.Orientation(); got != before {
		t.Errorf("timed-out command changed the cube: %v, was %v", got, before)
	}
	if got := s.Metrics().CommandsFailed; got != 1 {
		t.Errorf("CommandsFailed: expected 1, got %d", got)
	}
	pending, err := db.GetPendingCommands()
	if err != nil {
		t.Fatalf("GetPendingCommands failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("timed-out command should be committed as failed, %d pending", len(pending))
	}
}

func TestCancelledCommandIsNotApplied(t *testing.T) {
	loop := frame.NewLoop()
	doc := scene.NewDocument()
	doc.Create("the-cube", nil, "cube")
	c, err := cube.Open("", cube.Config{},
		cube.WithScheduler(loop),
		cube.WithResolver(doc),
		cube.WithProbe(capability.Supported),
	)
	if err != nil {
		t.Fatalf("cube.Open failed: %v", err)
	}
	before := c.Orientation()
	s := NewServer(Config{Timeout: time.Minute}, loop, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Execute(ctx, MsgApply, []byte(`{"side":"side-2"}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	loop.Step(1)
	if got := c.Orientation(); got != before {
		t.Errorf("cancelled command changed the cube: %v, was %v", got, before)
	}
}
