package domain

import (
	"slices"
	"testing"

	"mentionbot/internal/mention"
)

func TestNewMessage_MentionsFollowText(t *testing.T) {
	text := "<@BOT1> hi <@U2> and <@BOT1> again"
	msg := NewMessage(MessageParams{ID: "1.0", Text: text})

	want := []string{"BOT1", "U2", "BOT1"}
	if got := msg.MentionedUserIDs(); !slices.Equal(got, want) {
		t.Fatalf("mentions = %v, want %v", got, want)
	}
	if !slices.Equal(msg.MentionedUserIDs(), mention.Extract(msg.Text())) {
		t.Fatal("mentions must match a fresh extraction of the text")
	}
	if !msg.Mentions("BOT1") || msg.Mentions("U3") {
		t.Fatal("Mentions disagrees with the text")
	}
}

func TestNewMessage_NoMentions(t *testing.T) {
	msg := NewMessage(MessageParams{ID: "1.0", Text: "plain text"})
	if ids := msg.MentionedUserIDs(); ids == nil || len(ids) != 0 {
		t.Fatalf("mentions = %#v, want empty non-nil slice", ids)
	}
}

func TestMessage_AccessorReturnsCopy(t *testing.T) {
	msg := NewMessage(MessageParams{ID: "1.0", Text: "<@U1>"})
	ids := msg.MentionedUserIDs()
	ids[0] = "U9"
	if !msg.Mentions("U1") || msg.Mentions("U9") {
		t.Fatal("message mentions were mutated through the accessor")
	}
}
