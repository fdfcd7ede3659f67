/*
Package chat is the conversation workflow of the tutor: the persisted
State, the graph nodes that advance it by one turn, and NewWorkflow,
which wires them into a flowgraph.

A turn starts at initialize. An empty history routes to initial_question,
which greets the student from the language table without calling a
model. Otherwise the newest student message is optionally corrected, the
response model writes the tutor's reply, and when the history has grown
past Config.MessagesBeforeSummary the older messages are folded into the
running summary so only Config.MessagesToKeep remain.

	wf, err := chat.NewWorkflow(chat.DefaultConfig())
	state, err := chat.NewState(chat.Settings{
	    Level:           chat.LevelB2,
	    ForeignLanguage: "Spanish (Spain)",
	    NativeLanguage:  "English (US)",
	    Topic:           "travel and tourism",
	}, nil)
	ctx := flowgraph.NewContext(context.Background(), flowgraph.WithLLM(client))
	state, err = wf.Run(ctx, state)

Nodes never mutate the slices or maps of the state they were handed, so
a failed turn leaves the caller's copy intact.
*/
package chat
