/*
Package flowgraph runs typed state graphs: nodes transform a state value,
edges decide which node runs next.

# Basic Usage

Create a graph with nodes and edges, then compile and run:

	type State struct {
	    Input  string
	    Output string
	}

	func process(ctx flowgraph.Context, s State) (State, error) {
	    s.Output = "Processed: " + s.Input
	    return s, nil
	}

	graph := flowgraph.NewGraph[State]().
	    AddNode("process", process).
	    AddEdge("process", flowgraph.END).
	    SetEntry("process")

	compiled, err := graph.Compile()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := flowgraph.NewContext(context.Background())
	result, err := compiled.Run(ctx, State{Input: "hello"})

# Conditional Branching

A router picks the successor at runtime. Declaring its targets lets
Compile check them and lets the executor reject anything else:

	graph.AddConditionalEdge("review", func(ctx flowgraph.Context, s State) string {
	    if s.Approved {
	        return "publish"
	    }
	    return "revise"
	}, "publish", "revise")

Execution is strictly sequential. A node has either one unconditional
successor or one router.

# Checkpointing

With WithCheckpointing the executor writes JSON snapshots of the state
to a checkpoint.Store under the run ID:

	store, _ := checkpoint.NewSQLiteStore("./korli.db")
	result, err := compiled.Run(ctx, state,
	    flowgraph.WithRunID(sessionID),
	    flowgraph.WithCheckpointing(store),
	    flowgraph.WithCheckpointPolicy(flowgraph.OnComplete),
	    flowgraph.WithCheckpointFailureFatal())

EveryNode (the default) saves after each node and pairs with Resume and
ResumeFrom. OnComplete saves once at END, which makes a run behave like
a transaction: a failure leaves the previous snapshot in place.
LoadLatest reads the newest snapshot without running anything.

# Observability

	result, err := compiled.Run(ctx, state,
	    flowgraph.WithObservabilityLogger(logger),
	    flowgraph.WithTracing(true),
	    flowgraph.WithMetrics(true),
	    flowgraph.WithNodeListener(func(e flowgraph.NodeEvent[State]) {
	        fmt.Println(e.NodeID, "->", e.Next)
	    }))

Tracing and metrics use the global OpenTelemetry providers; see
observability.Setup.

# Errors

Node failures come back as *NodeError, panics as *PanicError, bad router
results as *RouterError, loop guard trips as *MaxIterationsError and
cancellation as *CancellationError. All support errors.Is/As.
*/
package flowgraph
