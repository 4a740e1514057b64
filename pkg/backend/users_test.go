package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestListUsersDegradesToEmptyPage(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, `down`), nil
	})
	page := client.ListUsers(context.Background(), "tok", "", 0, 1000)
	if page.Content == nil || len(page.Content) != 0 || page.TotalElements != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestListUsersQuery(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if req.URL.Path != "/api/admin" || q.Get("search") != "an" || q.Get("page") != "1" || q.Get("size") != "5" {
			t.Fatalf("unexpected request %s", req.URL.String())
		}
		return respond(http.StatusOK, `{"content":[{"id":1},{"id":2}],"totalElements":12}`), nil
	})
	page := client.ListUsers(context.Background(), "tok", "an", 1, 5)
	if len(page.Content) != 2 || page.TotalElements != 12 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestCheckAccountDegrades(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, ``), nil
	})
	got := client.CheckAccount(context.Background(), "", "a@b.c", "an")
	if got.ExistsEmail || got.ExistsUsername {
		t.Fatalf("expected neither to exist, got %+v", got)
	}
}

func TestCreateUserDropsEmptyPassword(t *testing.T) {
	cases := map[string]bool{
		`{"username":"an","password":""}`:   false,
		`{"username":"an","password":"  "}`: false,
		`{"username":"an","password":null}`: false,
		`{"username":"an","password":"pw"}`: true,
		`{"username":"an"}`:                 false,
	}
	for doc, wantPassword := range cases {
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			var payload map[string]any
			if err := json.Unmarshal(raw, &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := payload["password"]; ok != wantPassword {
				t.Fatalf("%s: password present=%v, want %v", doc, ok, wantPassword)
			}
			return respond(http.StatusOK, `{"id":5}`), nil
		})
		if _, err := client.CreateUser(context.Background(), "tok", json.RawMessage(doc)); err != nil {
			t.Fatalf("%s: create user: %v", doc, err)
		}
	}
}

func TestLoginDecodesResult(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/login" || req.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		return respond(http.StatusOK, `{"token":"jwt","username":"an","role":"USERS","userId":7}`), nil
	})
	res, err := client.Login(context.Background(), "an", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "jwt" || res.Role != "USERS" || res.UserID.String() != "7" {
		t.Fatalf("unexpected login result %+v", res)
	}
}
