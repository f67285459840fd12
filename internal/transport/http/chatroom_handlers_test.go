package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/service/messages"
)

func newTestRouter(t *testing.T, env *testEnv) *gin.Engine {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	return NewRouter(env.hub, env.auth, env.chat, &disabledLogger)
}

func doJSON(router *gin.Engine, method, path, token string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateChatroom(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	creatorID, token := registerTestUser(t, env, "creator")
	otherID, _ := registerTestUser(t, env, "attache")

	// Create with valid token and an extra member.
	body := fmt.Sprintf(`{"name":"consular-desk","embassy_id":"emb-1","member_ids":[%d]}`, otherID)
	resp := doJSON(router, http.MethodPost, "/api/chatrooms", token, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var room ChatroomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &room); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if room.Name != "consular-desk" {
		t.Errorf("expected name 'consular-desk', got '%s'", room.Name)
	}
	if room.CreatedBy != creatorID {
		t.Errorf("expected created_by %d, got %d", creatorID, room.CreatedBy)
	}
	if len(room.MemberIDs) != 2 {
		t.Errorf("expected 2 members (creator + attache), got %v", room.MemberIDs)
	}

	// Without token.
	resp = doJSON(router, http.MethodPost, "/api/chatrooms", "", `{"name":"should-fail"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.Code)
	}

	// Unknown member ID.
	resp = doJSON(router, http.MethodPost, "/api/chatrooms", token, `{"name":"ghost-room","member_ids":[9999]}`)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown member, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListChatroomsFiltered(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	creatorID, token := registerTestUser(t, env, "creator")
	otherID, _ := registerTestUser(t, env, "attache")

	ctx := context.Background()
	mustCreate := func(name, embassyID string, members ...int64) {
		t.Helper()
		_, _, err := env.chat.CreateChatroom(ctx, messages.ChatroomDraft{
			Name:      name,
			EmbassyID: embassyID,
			CreatedBy: creatorID,
			MemberIDs: members,
		})
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	mustCreate("alpha", "emb-1", otherID)
	mustCreate("bravo", "emb-1")
	mustCreate("charlie", "emb-2")

	resp := doJSON(router, http.MethodGet, "/api/chatrooms?embassy_id=emb-1", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var list struct {
		Data []ChatroomResponse `json:"data"`
		Meta PageMeta           `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(list.Data) != 2 {
		t.Errorf("expected 2 rooms for emb-1, got %d", len(list.Data))
	}
	if list.Meta.Total != 2 {
		t.Errorf("expected total 2, got %d", list.Meta.Total)
	}

	resp = doJSON(router, http.MethodGet, fmt.Sprintf("/api/chatrooms?user_id=%d", otherID), token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Name != "alpha" {
		t.Errorf("expected only 'alpha' for attache, got %+v", list.Data)
	}
}

func TestChatroomMembersEndpoints(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	creatorID, token := registerTestUser(t, env, "creator")
	otherID, _ := registerTestUser(t, env, "attache")

	room, _, err := env.chat.CreateChatroom(context.Background(), messages.ChatroomDraft{
		Name:      "visas",
		CreatedBy: creatorID,
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	body := fmt.Sprintf(`{"user_id":%d}`, otherID)
	resp := doJSON(router, http.MethodPost, "/api/chatrooms/"+room.ID+"/members", token, body)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("add member: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, http.MethodGet, "/api/chatrooms/"+room.ID, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get chatroom: expected 200, got %d", resp.Code)
	}
	var got ChatroomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("expected 2 members after add, got %v", got.MemberIDs)
	}

	resp = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/chatrooms/%s/members/%d", room.ID, otherID), token, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("remove member: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, http.MethodPost, "/api/chatrooms/no-such-room/members", token, body)
	if resp.Code != http.StatusNotFound {
		t.Errorf("add to unknown room: expected 404, got %d", resp.Code)
	}
}

func TestMessageHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	creatorID, token := registerTestUser(t, env, "creator")

	ctx := context.Background()
	room, _, err := env.chat.CreateChatroom(ctx, messages.ChatroomDraft{
		Name:      "dispatches",
		CreatedBy: creatorID,
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, _, _, err := env.chat.CreateChatMessage(ctx, messages.ChatMessageDraft{
			ChatroomID: room.ID,
			SenderID:   creatorID,
			Content:    fmt.Sprintf("dispatch %d", i),
		})
		if err != nil {
			t.Fatalf("failed to create message %d: %v", i, err)
		}
	}

	resp := doJSON(router, http.MethodGet, "/api/chatrooms/"+room.ID+"/messages?limit=2", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var list struct {
		Data []MessageResponse `json:"data"`
		Meta PageMeta          `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(list.Data) != 2 {
		t.Errorf("expected 2 messages on first page, got %d", len(list.Data))
	}
	if list.Meta.Total != 3 || list.Meta.TotalPages != 2 {
		t.Errorf("unexpected meta: %+v", list.Meta)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	creatorID, _ := registerTestUser(t, env, "creator")
	otherID, otherToken := registerTestUser(t, env, "attache")

	ctx := context.Background()
	room, _, err := env.chat.CreateChatroom(ctx, messages.ChatroomDraft{
		Name:      "briefings",
		CreatedBy: creatorID,
		MemberIDs: []int64{otherID},
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	// A message from the creator notifies the other member.
	if _, _, _, err := env.chat.CreateChatMessage(ctx, messages.ChatMessageDraft{
		ChatroomID: room.ID,
		SenderID:   creatorID,
		Content:    "morning briefing posted",
	}); err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	resp := doJSON(router, http.MethodGet, "/api/notifications", otherToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var list struct {
		Data []NotificationResponse `json:"data"`
		Meta PageMeta               `json:"meta"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list.Data))
	}
	if list.Data[0].IsRead {
		t.Errorf("expected notification unread")
	}

	resp = doJSON(router, http.MethodPatch, "/api/notifications/"+list.Data[0].ID+"/read", otherToken, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("mark read: expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(router, http.MethodPatch, "/api/notifications/no-such-id/read", otherToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("mark unknown: expected 404, got %d", resp.Code)
	}
}
