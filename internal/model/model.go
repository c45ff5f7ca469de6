// Package model holds the records shared by the studio functions and the keys
// they are stored under.
package model

import (
	"fmt"
	"strings"
	"time"
)

// MemberKind is a relation a tag can hold
type MemberKind string

// Tag relations
const (
	KindCollection  MemberKind = "COLLECTION"
	KindTimeslot    MemberKind = "TIMESLOT"
	KindParticipant MemberKind = "PARTICIPANT"
)

// Kinds lists every tag relation
var Kinds = []MemberKind{KindCollection, KindTimeslot, KindParticipant}

// EmailType selects an emailer
type EmailType string

// Email types understood by the router
const (
	EmailCreateUser EmailType = "createUser"
	EmailContact    EmailType = "contact"
)

// MetaSortKey is the sort key of every primary record
const MetaSortKey = "META"

// UserTag groups participants, collections and timeslots
type UserTag struct {
	ID             string    `json:"id" dynamodbav:"id"`
	Name           string    `json:"name" dynamodbav:"name"`
	Color          string    `json:"color,omitempty" dynamodbav:"color,omitempty"`
	Notify         bool      `json:"notify" dynamodbav:"notify"`
	CollectionIDs  []string  `json:"collectionIds,omitempty" dynamodbav:"-"`
	TimeslotIDs    []string  `json:"timeslotIds,omitempty" dynamodbav:"-"`
	ParticipantIDs []string  `json:"participantIds,omitempty" dynamodbav:"-"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Members returns the ids held under a relation
func (t *UserTag) Members(k MemberKind) []string {
	switch k {
	case KindCollection:
		return t.CollectionIDs
	case KindTimeslot:
		return t.TimeslotIDs
	case KindParticipant:
		return t.ParticipantIDs
	}
	return nil
}

// SetMembers replaces the ids held under a relation
func (t *UserTag) SetMembers(k MemberKind, ids []string) {
	switch k {
	case KindCollection:
		t.CollectionIDs = ids
	case KindTimeslot:
		t.TimeslotIDs = ids
	case KindParticipant:
		t.ParticipantIDs = ids
	}
}

// Timeslot is a bookable appointment slot
type Timeslot struct {
	ID            string    `json:"id" dynamodbav:"id"`
	Start         time.Time `json:"start" dynamodbav:"start"`
	End           time.Time `json:"end" dynamodbav:"end"`
	Description   string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Capacity      int       `json:"capacity" dynamodbav:"capacity"`
	ParticipantID string    `json:"participantId,omitempty" dynamodbav:"participantId,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty" dynamodbav:"userEmail,omitempty"`
	TagIDs        []string  `json:"tagIds,omitempty" dynamodbav:"-"`
}

// Registered reports whether a participant holds the slot
func (t *Timeslot) Registered() bool {
	return t.ParticipantID != ""
}

// Participant is a person photographed under a user profile
type Participant struct {
	ID            string   `json:"id" dynamodbav:"id"`
	UserEmail     string   `json:"userEmail" dynamodbav:"userEmail"`
	FirstName     string   `json:"firstName" dynamodbav:"firstName"`
	LastName      string   `json:"lastName" dynamodbav:"lastName"`
	PreferredName string   `json:"preferredName,omitempty" dynamodbav:"preferredName,omitempty"`
	MiddleName    string   `json:"middleName,omitempty" dynamodbav:"middleName,omitempty"`
	Email         string   `json:"email,omitempty" dynamodbav:"email,omitempty"`
	ContactEmail  bool     `json:"contact" dynamodbav:"contact"`
	TagIDs        []string `json:"tagIds,omitempty" dynamodbav:"-"`
}

// SameDetails compares the stored fields of two participants
func (p Participant) SameDetails(o Participant) bool {
	return p.UserEmail == o.UserEmail &&
		p.FirstName == o.FirstName &&
		p.LastName == o.LastName &&
		p.PreferredName == o.PreferredName &&
		p.MiddleName == o.MiddleName &&
		p.Email == o.Email &&
		p.ContactEmail == o.ContactEmail
}

// UserProfile is the account record keyed by email
type UserProfile struct {
	Email               string   `json:"email" dynamodbav:"email"`
	FirstName           string   `json:"firstName" dynamodbav:"firstName"`
	LastName            string   `json:"lastName" dynamodbav:"lastName"`
	PreferredName       string   `json:"preferredName,omitempty" dynamodbav:"preferredName,omitempty"`
	Sitting             int      `json:"sitting" dynamodbav:"sitting"`
	ActiveParticipantID string   `json:"activeParticipantId,omitempty" dynamodbav:"activeParticipantId,omitempty"`
	ParticipantIDs      []string `json:"participantIds,omitempty" dynamodbav:"participantIds,stringset,omitempty"`
}

// CreateUserToken is a temporary sign-up grant mailed to a new user
type CreateUserToken struct {
	UID     string    `json:"uid" dynamodbav:"uid"`
	Email   string    `json:"email" dynamodbav:"email"`
	TagIDs  []string  `json:"tags,omitempty" dynamodbav:"tags,stringset,omitempty"`
	Expires time.Time `json:"expires" dynamodbav:"-"`
}

// Expired reports whether the token is no longer usable at now
func (t *CreateUserToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// PhotoCollection is a set of photos shown to tagged participants
type PhotoCollection struct {
	ID        string `json:"id" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	EventID   string `json:"eventId,omitempty" dynamodbav:"eventId,omitempty"`
	CoverPath string `json:"coverPath,omitempty" dynamodbav:"coverPath,omitempty"`
}

// Event is a photographed occasion
type Event struct {
	ID   string `json:"id" dynamodbav:"id"`
	Name string `json:"name" dynamodbav:"name"`
}

// SubCategory splits an event
type SubCategory struct {
	ID      string `json:"id" dynamodbav:"id"`
	EventID string `json:"eventId" dynamodbav:"eventId"`
	Name    string `json:"name" dynamodbav:"name"`
}

// TagKey is the partition key of a tag and its memberships
func TagKey(id string) string { return "TAG#" + id }

// TimeslotKey is the partition key of a timeslot
func TimeslotKey(id string) string { return "TIMESLOT#" + id }

// ParticipantKey is the partition key of a participant
func ParticipantKey(id string) string { return "PARTICIPANT#" + id }

// ProfileKey is the partition key of a profile
func ProfileKey(email string) string { return "PROFILE#" + strings.ToLower(email) }

// HolderKey is the GSI1 partition key under which a registered timeslot is
// listed for the participant holding it
func HolderKey(participantID string) string { return "HOLDER#" + participantID }

// TokenKey is the partition key of a create-user token
func TokenKey(uid string) string { return "TOKEN#" + uid }

// MemberKey is the key of a member record, used as membership sort key and
// as the GSI1 partition key for reverse lookups
func MemberKey(k MemberKind, id string) string {
	return fmt.Sprintf("%s#%s", k, id)
}

// SplitKey splits a composite key into its prefix and id
func SplitKey(key string) (string, string) {
	i := strings.IndexByte(key, '#')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}
