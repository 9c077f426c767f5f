package service

import (
	"fmt"
	"strings"
	"time"
)

// Canned replies
const (
	ReplyGreeting  = "👋 Hello! How can I help you today?"
	ReplyHelp      = "🆘 I'm here to help! You can ask me questions or just chat. What would you like to know?"
	ReplyGratitude = "😊 You're welcome! Is there anything else I can help you with?"
	ReplyFarewell  = "👋 Goodbye! Feel free to message me anytime!"
	ReplyWeather   = "🌤️ I don't have real-time weather data, but I hope it's a beautiful day where you are!"
	ReplyHours     = "🕐 We're available 24/7 through this WhatsApp bot! How can I assist you?"

	replyTimeFormat     = "🕒 Current time: %s"
	replyFallbackFormat = "I received your message: \"%s\"\n\n🤖 This is an automated response. How can I help you further?"

	// localTimeLayout renders like a en-US locale string, e.g. 1/2/2006, 3:04:05 PM
	localTimeLayout = "1/2/2006, 3:04:05 PM"
)

// replyRule maps any of its keywords to a reply. Rules are evaluated in order.
type replyRule struct {
	keywords []string
	reply    func(c *Composer) string
}

var replyRules = []replyRule{
	{keywords: []string{"hello", "hi", "hey"}, reply: fixedReply(ReplyGreeting)},
	{keywords: []string{"help", "support"}, reply: fixedReply(ReplyHelp)},
	{keywords: []string{"thank"}, reply: fixedReply(ReplyGratitude)},
	{keywords: []string{"bye", "goodbye", "see you"}, reply: fixedReply(ReplyFarewell)},
	{keywords: []string{"time", "date"}, reply: func(c *Composer) string {
		return fmt.Sprintf(replyTimeFormat, c.now().Format(localTimeLayout))
	}},
	{keywords: []string{"weather"}, reply: fixedReply(ReplyWeather)},
	{keywords: []string{"hours", "open"}, reply: fixedReply(ReplyHours)},
}

func fixedReply(text string) func(*Composer) string {
	return func(*Composer) string { return text }
}

// Composer maps inbound free text to a canned reply using ordered keyword rules
type Composer struct {
	now func() time.Time
}

// NewComposer creates a composer that stamps time replies with the local wall clock
func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// NewComposerWithClock creates a composer with an injected clock
func NewComposerWithClock(now func() time.Time) *Composer {
	return &Composer{now: now}
}

// Compose returns the reply for message. Matching is case-insensitive and
// substring based, and the first matching rule wins. The fallback reply echoes
// the message exactly as received.
func (c *Composer) Compose(message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, rule := range replyRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.reply(c)
			}
		}
	}

	return fmt.Sprintf(replyFallbackFormat, message)
}
