package agent

import (
	"strings"

	"github.com/portfolioagent/portfolioagent/internal/metrics"
)

const ShortReplyNotice = "(Generated response was too short; here's what I have:)\n"

// minReplyWords is the word count below which a reply gets the notice.
const minReplyWords = 3

func GreetingPrompt(userMessage string) string {
	return "You are a friendly assistant.\n\n" +
		"The user said: \"" + userMessage + "\"\n\n" +
		"Respond with a warm and welcoming greeting.\n"
}

// CheckReply prefixes ShortReplyNotice to empty or very short replies. The
// reply itself is kept.
func CheckReply(reply string) string {
	if len(strings.Fields(reply)) < minReplyWords {
		metrics.ShortReplies.Inc()
		return ShortReplyNotice + reply
	}
	return reply
}
