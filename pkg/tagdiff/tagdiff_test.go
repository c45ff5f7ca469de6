package tagdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lensworks/studio/internal/model"
)

func base() model.UserTag {
	return model.UserTag{
		ID:             "t1",
		Name:           "Seniors",
		Color:          "#ff0000",
		CollectionIDs:  []string{"c1", "c2"},
		TimeslotIDs:    []string{"ts1"},
		ParticipantIDs: []string{"p1", "p2"},
	}
}

func TestEvaluate(t *testing.T) {

	tt := []struct {
		name   string
		mutate func(*model.UserTag)
		want   bool
	}{
		{name: "identical", mutate: func(*model.UserTag) {}},
		{name: "reordered", mutate: func(u *model.UserTag) { u.CollectionIDs = []string{"c2", "c1"} }},
		{name: "duplicated", mutate: func(u *model.UserTag) { u.TimeslotIDs = []string{"ts1", "ts1"} }},
		{name: "timeslots_cleared", mutate: func(u *model.UserTag) { u.TimeslotIDs = nil }, want: true},
		{name: "name", mutate: func(u *model.UserTag) { u.Name = "Juniors" }, want: true},
		{name: "color", mutate: func(u *model.UserTag) { u.Color = "" }, want: true},
		{name: "notify", mutate: func(u *model.UserTag) { u.Notify = true }, want: true},
		{name: "collection_added", mutate: func(u *model.UserTag) { u.CollectionIDs = append(u.CollectionIDs, "c3") }, want: true},
		{name: "participant_swapped", mutate: func(u *model.UserTag) { u.ParticipantIDs = []string{"p1", "p3"} }, want: true},
		{name: "id_ignored", mutate: func(u *model.UserTag) { u.ID = "other" }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			next := base()
			tc.mutate(&next)
			got := Evaluate(base(), next)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, !tc.want, Compute(base(), next).Empty())
		})
	}
}

func TestCompute(t *testing.T) {

	next := base()
	next.CollectionIDs = []string{"c2", "c4", "c3"}
	next.ParticipantIDs = nil

	d := Compute(base(), next)

	assert.False(t, d.FieldsChanged)
	assert.Equal(t, Delta{Added: []string{"c3", "c4"}, Removed: []string{"c1"}}, d.Relations[model.KindCollection])
	assert.True(t, d.Relations[model.KindTimeslot].Empty())
	assert.Equal(t, Delta{Removed: []string{"p1", "p2"}}, d.Relations[model.KindParticipant])
}

func TestEvaluateEmptyRelations(t *testing.T) {

	prev := model.UserTag{Name: "a"}
	next := model.UserTag{Name: "a", CollectionIDs: []string{}, TimeslotIDs: []string{}}
	assert.False(t, Evaluate(prev, next))
}
