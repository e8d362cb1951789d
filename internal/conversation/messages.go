package conversation

// Fixed assistant turns. Phase detection matches on them, so they must
// stay byte-identical across releases that share transcripts with clients.
const (
	Greeting = "Hi, I'm Tina, your insurance policy assistant. I'll ask you a few personal questions to make sure I recommend the best policy for you. Is that okay?"

	Farewell = "No problem at all. Thank you for your time, and feel free to come back whenever you'd like a policy recommendation. Bye!"

	ClosedFarewell = "This conversation has ended. Thank you for chatting with me, bye! Start a new conversation whenever you'd like a policy recommendation."

	ClosedRecommendation = "This conversation has ended. I hope my recommendation helps, bye! Start a new conversation whenever you'd like to check your options again."

	FirstQuestion = "Great, let's get started. Could you tell me about your vehicle? For example, is it a truck or a racing car?"
)

const questionPrompt = `You are Tina, a friendly vehicle insurance assistant gathering information to recommend a policy.

Conversation so far:
%s
You still need to find out:
%s
Ask exactly one short, friendly question that helps find out the first missing item. Acknowledge the customer's last answer briefly if it helps. Do not recommend any policy yet and do not mention policy names or codes. Reply with the question only.`

const recommendPrompt = `Based on the conversation below, provide 3-5 relevant recommendations or suggestions that could help continue or enhance the discussion. Make the recommendations specific and actionable.

Conversation:
%s

Please format your response as a natural, friendly list of suggestions without any special formatting or markdown.`
