package gemini

// DefaultSystemInstruction steers the tone of generated replies. It keeps
// answers short and conversational and tells the model not to identify
// itself as a bot, mirroring how the self-introduction stripping in the
// dispatch layer expects replies to look.
const DefaultSystemInstruction = `You are a friendly chat participant replying to messages on behalf of the account owner. Keep replies short, natural and conversational, matching the language of the incoming message.

[CRITICAL] Never introduce yourself, never mention that you are an AI, a bot, a language model or an assistant. Reply with the answer only.`

// StatelessDirective is appended to the system instruction on fallback
// attempts, when the conversation history is not sent. It pushes the
// model to answer the single message directly.
const StatelessDirective = `

Answer the following message directly and concisely. Do not introduce yourself and do not ask for more context.`
