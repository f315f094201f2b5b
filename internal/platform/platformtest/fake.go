// Package platformtest provides an in-memory platform for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/ticketbot/internal/platform"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("platformtest: injected failure")

// StoredMessage is a message as held by the fake.
type StoredMessage struct {
	ID        string
	ChannelID string
	Message   platform.Message
	Edits     int
}

// CreatedChannel keeps the permission overwrites a channel was created with.
type CreatedChannel struct {
	platform.Channel
	Overwrites []platform.Overwrite
}

// Fake is a concurrency-safe in-memory platform.Platform.
type Fake struct {
	mu       sync.Mutex
	seq      int
	guilds   map[string]platform.Guild
	channels map[string]*CreatedChannel
	messages map[string]*StoredMessage
	members  map[string]platform.Member
	direct   map[string][]platform.Message
	status   []string

	// Fail maps an operation name (e.g. "SendMessage") to the error it returns.
	Fail map[string]error
	// FailOnce is like Fail but each entry is consumed by the first call.
	FailOnce map[string]error
	// BlockedDM lists user ids whose direct messages are rejected.
	BlockedDM map[string]bool
}

// NewFake returns an empty platform.
func NewFake() *Fake {
	return &Fake{
		guilds:    map[string]platform.Guild{},
		channels:  map[string]*CreatedChannel{},
		messages:  map[string]*StoredMessage{},
		members:   map[string]platform.Member{},
		direct:    map[string][]platform.Message{},
		Fail:      map[string]error{},
		FailOnce:  map[string]error{},
		BlockedDM: map[string]bool{},
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) failure(op string) error {
	if err, ok := f.FailOnce[op]; ok {
		delete(f.FailOnce, op)
		if err == nil {
			return ErrInjected
		}
		return err
	}
	if err, ok := f.Fail[op]; ok {
		if err == nil {
			return ErrInjected
		}
		return err
	}
	return nil
}

// SetFailure makes op fail with err (ErrInjected when err is nil).
func (f *Fake) SetFailure(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fail[op] = err
}

// SetFailureOnce makes only the next call of op fail.
func (f *Fake) SetFailureOnce(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOnce[op] = err
}

// ClearFailure removes a failure set with SetFailure.
func (f *Fake) ClearFailure(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Fail, op)
}

// AddGuild registers a guild.
func (f *Fake) AddGuild(g platform.Guild) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[g.ID] = g
}

// AddChannel registers an existing channel.
func (f *Fake) AddChannel(c platform.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[c.ID] = &CreatedChannel{Channel: c}
}

// AddMember registers a member's capability set.
func (f *Fake) AddMember(guildID string, m platform.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[guildID+"/"+m.UserID] = m
}

// DeleteMessage removes a message as if an admin deleted it.
func (f *Fake) DeleteMessage(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, messageID)
}

// MessagesIn returns the live messages of a channel.
func (f *Fake) MessagesIn(channelID string) []StoredMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []StoredMessage
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	return out
}

// Message returns a stored message by id.
func (f *Fake) Message(messageID string) (StoredMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return StoredMessage{}, false
	}
	return *m, true
}

// CreatedChannels returns every live channel.
func (f *Fake) CreatedChannels() []CreatedChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CreatedChannel, 0, len(f.channels))
	for _, c := range f.channels {
		out = append(out, *c)
	}
	return out
}

// DirectMessages returns what was delivered to userID.
func (f *Fake) DirectMessages(userID string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Message(nil), f.direct[userID]...)
}

// Statuses returns every status text set so far.
func (f *Fake) Statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.status...)
}

func (f *Fake) Guild(_ context.Context, guildID string) (platform.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("Guild"); err != nil {
		return platform.Guild{}, err
	}
	g, ok := f.guilds[guildID]
	if !ok {
		return platform.Guild{}, platform.ErrNotFound
	}
	return g, nil
}

func (f *Fake) SendMessage(_ context.Context, channelID string, msg platform.Message) (platform.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SendMessage"); err != nil {
		return platform.SentMessage{}, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.SentMessage{}, platform.ErrNotFound
	}
	id := f.nextID("msg")
	f.messages[id] = &StoredMessage{ID: id, ChannelID: channelID, Message: msg}
	return platform.SentMessage{ID: id, ChannelID: channelID}, nil
}

func (f *Fake) EditMessage(_ context.Context, channelID, messageID string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("EditMessage"); err != nil {
		return err
	}
	m, ok := f.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return platform.ErrNotFound
	}
	m.Message = msg
	m.Edits++
	return nil
}

func (f *Fake) FetchMessage(_ context.Context, channelID, messageID string) (platform.SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("FetchMessage"); err != nil {
		return platform.SentMessage{}, err
	}
	m, ok := f.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return platform.SentMessage{}, platform.ErrNotFound
	}
	return platform.SentMessage{ID: m.ID, ChannelID: m.ChannelID}, nil
}

func (f *Fake) GuildChannels(_ context.Context, guildID string) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GuildChannels"); err != nil {
		return nil, err
	}
	var out []platform.Channel
	for _, c := range f.channels {
		if c.GuildID == guildID {
			out = append(out, c.Channel)
		}
	}
	return out, nil
}

func (f *Fake) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("Channel"); err != nil {
		return platform.Channel{}, err
	}
	c, ok := f.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrNotFound
	}
	return c.Channel, nil
}

func (f *Fake) CreateChannel(_ context.Context, guildID string, spec platform.ChannelSpec) (platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("CreateChannel"); err != nil {
		return platform.Channel{}, err
	}
	c := platform.Channel{
		ID:       f.nextID("chan"),
		GuildID:  guildID,
		Name:     spec.Name,
		Topic:    spec.Topic,
		ParentID: spec.ParentID,
	}
	f.channels[c.ID] = &CreatedChannel{Channel: c, Overwrites: spec.Overwrites}
	return c, nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("DeleteChannel"); err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrNotFound
	}
	delete(f.channels, channelID)
	for id, m := range f.messages {
		if m.ChannelID == channelID {
			delete(f.messages, id)
		}
	}
	return nil
}

func (f *Fake) Member(_ context.Context, guildID, userID, _ string) (platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("Member"); err != nil {
		return platform.Member{}, err
	}
	m, ok := f.members[guildID+"/"+userID]
	if !ok {
		return platform.Member{UserID: userID}, nil
	}
	return m, nil
}

func (f *Fake) SendDirect(_ context.Context, userID string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SendDirect"); err != nil {
		return err
	}
	if f.BlockedDM[userID] {
		return fmt.Errorf("direct messages disabled for %s", userID)
	}
	f.direct[userID] = append(f.direct[userID], msg)
	return nil
}

func (f *Fake) SetStatus(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("SetStatus"); err != nil {
		return err
	}
	f.status = append(f.status, text)
	return nil
}

// Recorder is a platform.Responder that keeps every reply.
type Recorder struct {
	mu      sync.Mutex
	Replies []platform.Reply
	Err     error
}

func (r *Recorder) Reply(_ context.Context, reply platform.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Replies = append(r.Replies, reply)
	return nil
}

// Last returns the most recent reply.
func (r *Recorder) Last() (platform.Reply, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Replies) == 0 {
		return platform.Reply{}, false
	}
	return r.Replies[len(r.Replies)-1], true
}
