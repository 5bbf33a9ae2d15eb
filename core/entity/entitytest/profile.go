// Package entitytest provides a small profile domain used by the runtime and
// adapter tests.
package entitytest

import (
	"errors"

	"github.com/tonyfromundefined/ventyd-sub000/core/entity"
)

const EntityName = "profile"

// Full event names.
const (
	EventCreated         = "profile:created"
	EventNicknameUpdated = "profile:nickname_updated"
	EventBioUpdated      = "profile:bio_updated"
	EventDeactivated     = "profile:deactivated"
)

type (
	Profile struct {
		Nickname    string `json:"nickname"`
		Bio         string `json:"bio"`
		Deactivated bool   `json:"deactivated"`
		NumEvents   int    `json:"num_events"`
	}

	ProfileCreated struct {
		Nickname string `json:"nickname"`
	}

	NicknameUpdated struct {
		Nickname string `json:"nickname"`
	}

	BioUpdated struct {
		Bio string `json:"bio,omitempty"`
	}

	ProfileDeactivated struct{}
)

func (e ProfileCreated) Validate() error {
	if e.Nickname == "" {
		return errors.New("nickname is required")
	}
	return nil
}

func (e NicknameUpdated) Validate() error {
	if e.Nickname == "" {
		return errors.New("nickname is required")
	}
	return nil
}

// Reduce folds one profile event into the state. Unknown event names leave
// the state unchanged.
func Reduce(prev Profile, ev entity.Event) Profile {
	switch b := ev.Body.(type) {
	case *ProfileCreated:
		prev.Nickname = b.Nickname
	case *NicknameUpdated:
		prev.Nickname = b.Nickname
	case *BioUpdated:
		prev.Bio = b.Bio
	case *ProfileDeactivated:
		prev.Deactivated = true
	default:
		return prev
	}
	prev.NumEvents++
	return prev
}

// NewProvider returns a codec provider with all profile events registered.
func NewProvider() *entity.CodecProvider[Profile] {
	p := entity.NewCodecProvider[Profile]()
	entity.RegisterEvent[Profile, ProfileCreated](p, EventCreated)
	entity.RegisterEvent[Profile, NicknameUpdated](p, EventNicknameUpdated)
	entity.RegisterEvent[Profile, BioUpdated](p, EventBioUpdated)
	entity.RegisterEvent[Profile, ProfileDeactivated](p, EventDeactivated)
	return p
}

// NewSchema builds the profile schema. Panics on configuration errors so
// test setup stays terse.
func NewSchema(opts ...entity.SchemaOption) *entity.Schema[Profile] {
	s, err := entity.NewSchema(EntityName, "created", NewProvider(), Reduce, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
