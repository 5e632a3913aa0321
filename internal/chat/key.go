package chat

import "fmt"

// Key identifies one chat context: a channel and an optional thread inside it.
// Every match cycle, roster and settings record is scoped by a Key.
type Key struct {
	ChannelID string `json:"channel_id" msgpack:"channel_id"`
	ThreadID  string `json:"thread_id" msgpack:"thread_id"`
}

// NewKey builds a Key. An empty thread means the channel itself.
func NewKey(channelID, threadID string) Key {
	return Key{ChannelID: channelID, ThreadID: threadID}
}

func (k Key) String() string {
	if k.ThreadID == "" {
		return k.ChannelID
	}
	return fmt.Sprintf("%s/%s", k.ChannelID, k.ThreadID)
}
