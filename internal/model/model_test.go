package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "TAG#t1", TagKey("t1"))
	assert.Equal(t, "PROFILE#jo@example.com", ProfileKey("Jo@Example.COM"))
	assert.Equal(t, "TIMESLOT#s1", MemberKey(KindTimeslot, "s1"))
	assert.Equal(t, "HOLDER#p1", HolderKey("p1"))

	prefix, id := SplitKey(MemberKey(KindParticipant, "p#1"))
	assert.Equal(t, "PARTICIPANT", prefix)
	assert.Equal(t, "p#1", id)

	prefix, id = SplitKey("bare")
	assert.Empty(t, prefix)
	assert.Equal(t, "bare", id)
}

func TestMembers(t *testing.T) {
	var tag UserTag
	for i, k := range Kinds {
		tag.SetMembers(k, []string{string(rune('a' + i))})
	}
	assert.Equal(t, []string{"a"}, tag.CollectionIDs)
	assert.Equal(t, []string{"b"}, tag.Members(KindTimeslot))
	assert.Equal(t, []string{"c"}, tag.Members(KindParticipant))
	assert.Nil(t, tag.Members("UNKNOWN"))
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := CreateUserToken{Expires: now}

	assert.True(t, tok.Expired(now), "a token is expired at its expiry instant")
	assert.True(t, tok.Expired(now.Add(time.Second)))
	assert.False(t, tok.Expired(now.Add(-time.Second)))
}

func TestSameDetails(t *testing.T) {
	p := Participant{ID: "p1", UserEmail: "jo@example.com", FirstName: "Sam", LastName: "Lee", TagIDs: []string{"a"}}

	q := p
	q.ID, q.TagIDs = "other", nil
	assert.True(t, p.SameDetails(q), "ids and tags are not details")

	q.ContactEmail = true
	assert.False(t, p.SameDetails(q))
}
