package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/taskmanager/internal/domain"
)

type tokenAuth map[string]uuid.UUID

func (a tokenAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	id, ok := a[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &domain.User{ID: id}, nil
}

func startServer(t *testing.T, auth Authenticator) (*Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWS(ctx, hub, auth, []string{"*"}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// dial connects and waits for a pong, which proves the hub registered the client.
func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	if err := wsjson.Write(ctx, conn, Event{Type: EventTypePing}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var evt Event
	if err := wsjson.Read(ctx, conn, &evt); err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if evt.Type != EventTypePong {
		t.Fatalf("got %q, want pong", evt.Type)
	}
	return conn
}

func TestTaskEventsReachOnlyTheOwner(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	hub, url := startServer(t, tokenAuth{"owner": owner, "other": other})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ownerConn := dial(t, ctx, url+"?token=owner")
	otherConn := dial(t, ctx, url+"?token=other")

	task := &domain.Task{ID: uuid.New(), Description: "Write tests", OwnerID: owner}
	NewHubNotifier(hub).TaskCreated(task)

	var evt Event
	if err := wsjson.Read(ctx, ownerConn, &evt); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if evt.Type != EventTypeTaskCreated {
		t.Fatalf("type = %q, want %q", evt.Type, EventTypeTaskCreated)
	}
	var payload TaskPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.ID != task.ID || payload.Description != "Write tests" {
		t.Errorf("payload = %+v", payload)
	}

	// The other user gets nothing; a short read deadline must expire.
	shortCtx, shortCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer shortCancel()
	if err := wsjson.Read(shortCtx, otherConn, &evt); err == nil {
		t.Errorf("other user received %q", evt.Type)
	}
}

func TestServeWSRejectsBadToken(t *testing.T) {
	_, url := startServer(t, tokenAuth{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url+"?token=nope", nil)
	if err == nil {
		t.Fatal("dial succeeded with a bad token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}

func TestOriginHosts(t *testing.T) {
	got := OriginHosts([]string{"https://app.example/", "*", "localhost:3000"})
	want := []string{"app.example", "*", "localhost:3000"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OriginHosts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCloseSessionsDropsRevokedConnections(t *testing.T) {
	owner := uuid.New()
	hub, url := startServer(t, tokenAuth{"phone": owner, "laptop": owner})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	phone := dial(t, ctx, url+"?token=phone")
	laptop := dial(t, ctx, url+"?token=laptop")

	hub.CloseSessions(owner, "phone")

	var evt Event
	if err := wsjson.Read(ctx, phone, &evt); err == nil {
		t.Fatalf("revoked connection still open, got %q", evt.Type)
	}

	// The other session keeps receiving events.
	NewHubNotifier(hub).TaskCreated(&domain.Task{ID: uuid.New(), Description: "still here", OwnerID: owner})
	if err := wsjson.Read(ctx, laptop, &evt); err != nil {
		t.Fatalf("laptop read: %v", err)
	}
	if evt.Type != EventTypeTaskCreated {
		t.Errorf("type = %q", evt.Type)
	}

	hub.CloseSessions(owner, "")
	if err := wsjson.Read(ctx, laptop, &evt); err == nil {
		t.Errorf("connection survived closing every session, got %q", evt.Type)
	}
}
