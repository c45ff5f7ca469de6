package registeruser

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/lensworks/studio/internal/apperr"
	"github.com/lensworks/studio/internal/model"
	"github.com/lensworks/studio/internal/resolver"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type mockStore struct {
	mu           sync.Mutex
	profile      *model.UserProfile
	participants []model.Participant
	tokens       map[string]model.CreateUserToken
	writes       []string
}

func (m *mockStore) record(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, s)
	return nil
}

func (m *mockStore) GetProfile(_ context.Context, email string) (*model.UserProfile, error) {
	if m.profile == nil {
		return nil, apperr.Missing("PROFILE#%v not found", email)
	}
	p := *m.profile
	return &p, nil
}

func (m *mockStore) PutProfile(_ context.Context, p *model.UserProfile) error {
	return m.record("profile " + p.Email)
}

func (m *mockStore) ProfileParticipants(context.Context, string) ([]model.Participant, error) {
	return m.participants, nil
}

func (m *mockStore) PutParticipant(_ context.Context, p *model.Participant) error {
	return m.record("participant " + p.ID + " " + p.FirstName)
}

func (m *mockStore) DeleteParticipant(_ context.Context, id string) error {
	return m.record("delete " + id)
}

func (m *mockStore) AddMember(_ context.Context, tag string, kind model.MemberKind, id string) error {
	return m.record(fmt.Sprintf("member %v %v", tag, model.MemberKey(kind, id)))
}

func (m *mockStore) GetToken(_ context.Context, uid string) (*model.CreateUserToken, error) {
	t, ok := m.tokens[uid]
	if !ok {
		return nil, apperr.Missing("TOKEN#%v not found", uid)
	}
	return &t, nil
}

func (m *mockStore) DeleteToken(_ context.Context, uid string) error {
	return m.record("consume " + uid)
}

func newRegistrar(db *mockStore) *Registrar {
	r := NewRegistrar(db, zap.NewNop(), "ADMINS")
	r.now = func() time.Time { return now }
	n := 0
	r.newID = func() string { n++; return fmt.Sprintf("new-%d", n) }
	return r
}

func tokens() map[string]model.CreateUserToken {
	return map[string]model.CreateUserToken{
		"good":  {UID: "good", Email: "jo@example.com", TagIDs: []string{"seniors"}, Expires: now.Add(time.Hour)},
		"stale": {UID: "stale", Email: "jo@example.com", Expires: now.Add(-time.Minute)},
		"alien": {UID: "alien", Email: "al@example.com", Expires: now.Add(time.Hour)},
	}
}

func TestRegister(t *testing.T) {

	stored := []model.Participant{
		{ID: "p1", UserEmail: "jo@example.com", FirstName: "Jo", LastName: "Doe"},
		{ID: "p2", UserEmail: "jo@example.com", FirstName: "Sam", LastName: "Doe"},
	}
	profile := &model.UserProfile{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe",
		Sitting: 2, ActiveParticipantID: "p2", ParticipantIDs: []string{"p1", "p2"}}

	tt := []struct {
		name         string
		profile      *model.UserProfile
		participants []model.Participant
		args         Arguments
		want         Result
		writes       []string
		active       string
		kind         apperr.Kind
		err          string
	}{
		{
			name: "new_user_with_token",
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Token: "good",
				Participants: []ParticipantInput{{FirstName: "Jo", LastName: "Doe"}, {FirstName: "Kim", LastName: "Doe"}}},
			want: Result{ProfileWritten: true, Created: []string{"new-1", "new-2"}, Updated: []string{}},
			writes: []string{
				"consume good",
				"member seniors PARTICIPANT#new-1",
				"member seniors PARTICIPANT#new-2",
				"participant new-1 Jo",
				"participant new-2 Kim",
				"profile jo@example.com",
			},
			active: "new-1",
		},
		{
			name: "unchanged", profile: profile, participants: stored,
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe",
				Participants: []ParticipantInput{{ID: "p2", FirstName: "Sam", LastName: "Doe"}, {ID: "p1", FirstName: "Jo", LastName: "Doe"}}},
			want:   Result{Created: []string{}, Updated: []string{}},
			active: "p2",
		},
		{
			name: "update_and_delete", profile: profile, participants: stored,
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe",
				Participants: []ParticipantInput{{ID: "p1", FirstName: "Joanne", LastName: "Doe"}}},
			want:   Result{ProfileWritten: true, Created: []string{}, Updated: []string{"p1"}, Deleted: []string{"p2"}},
			writes: []string{"delete p2", "participant p1 Joanne", "profile jo@example.com"},
			active: "p1",
		},
		{
			name: "expired_token",
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Token: "stale"},
			kind: apperr.Validation, err: "token expired",
		},
		{
			name: "unknown_token",
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Token: "nope"},
			kind: apperr.Validation, err: "unknown token",
		},
		{
			name: "foreign_token",
			args: Arguments{Email: "jo@example.com", FirstName: "Jo", LastName: "Doe", Token: "alien"},
			kind: apperr.Forbidden, err: "not issued",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			db := &mockStore{profile: tc.profile, participants: tc.participants, tokens: tokens()}
			r := newRegistrar(db)

			res, err := r.Register(context.Background(), tc.args)
			if err != nil {
				if tc.err == "" || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error %q, got: %q", tc.err, err)
				}
				if k := apperr.KindOf(err); k != tc.kind {
					t.Errorf("expected kind %v, got %v", tc.kind, k)
				}
				if len(db.writes) != 0 {
					t.Errorf("expected no writes, got %v", db.writes)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q, got none", tc.err)
			}

			got := *res
			got.Profile = nil
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}

			sort.Strings(db.writes)
			if diff := cmp.Diff(tc.writes, db.writes); diff != "" {
				t.Errorf("unexpected writes (-want +got):\n%s", diff)
			}
			if res.Profile.ActiveParticipantID != tc.active {
				t.Errorf("expected active participant %q, got %q", tc.active, res.Profile.ActiveParticipantID)
			}
			if res.Changed() != (len(tc.writes) > 0) {
				t.Errorf("Changed() disagrees with writes %v", db.writes)
			}
		})
	}
}

func TestHandle(t *testing.T) {

	args := json.RawMessage(`{"email":"Jo@Example.com","firstName":"Jo","lastName":"Doe","participants":[{"firstName":"Jo","lastName":"Doe"}]}`)

	tt := []struct {
		name     string
		args     json.RawMessage
		identity *resolver.Identity
		kind     apperr.Kind
	}{
		{name: "self", args: args, identity: &resolver.Identity{Claims: map[string]interface{}{"email": "jo@example.com"}}},
		{name: "admin", args: args, identity: &resolver.Identity{Groups: []string{"ADMINS"}}},
		{name: "stranger", args: args, identity: &resolver.Identity{Claims: map[string]interface{}{"email": "al@example.com"}},
			kind: apperr.Forbidden},
		{name: "nameless_participant", args: json.RawMessage(`{"email":"jo@example.com","firstName":"Jo","lastName":"Doe","participants":[{"firstName":"Jo"}]}`),
			identity: &resolver.Identity{Groups: []string{"ADMINS"}}, kind: apperr.Validation},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			r := newRegistrar(&mockStore{tokens: tokens()})
			out, err := r.Handle(context.Background(), resolver.Event{Arguments: tc.args, Identity: tc.identity})
			if tc.kind != "" {
				if err == nil || apperr.KindOf(err) != tc.kind {
					t.Fatalf("expected %v error, got: %v", tc.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var res Result
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("could not unmarshal result: %v", err)
			}
			if res.Profile.Email != "jo@example.com" || len(res.Created) != 1 {
				t.Errorf("unexpected result: %+v", res)
			}
		})
	}
}
