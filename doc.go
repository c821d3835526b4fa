// Package dispatcher routes work between a single foreground execution
// context and a fixed background worker pool.
//
// The foreground context is one goroutine (optionally locked to its OS
// thread) draining a FIFO queue: the place where UI updates and listener
// callbacks must happen. The background pool is DefaultPoolWorkers (20)
// goroutines pulling from a shared FIFO scheduler.
//
// # Quick Start
//
//	d, err := dispatcher.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	d.RunOnForeground(func(ctx context.Context) {
//		// always on the foreground goroutine, never inline
//		d.RunInBackground(ctx, func(ctx context.Context) {
//			// on the pool: the caller was the foreground
//		})
//	})
//
// # Routing
//
// RunOnForeground always queues. RunInBackground (Dispatch with
// forceBackground=false) submits to the pool when the caller is on the
// foreground and runs the task inline otherwise; RunInBackgroundForced
// always submits to the pool. The caller's execution context travels in
// ctx: tasks run by the foreground runner receive a ctx for which
// IsForeground reports true.
//
// # Listeners
//
// NotifySuccess and NotifyError hand a value or a *CommandError to a
// Listener on the foreground runner, exactly once, asynchronously. A nil
// listener is ignored.
//
// # Hosting the foreground
//
// With WithHostedForeground the program donates a goroutine, usually main:
//
//	d, _ := dispatcher.New(dispatcher.WithHostedForeground())
//	go work(d)
//	_ = d.RunForeground(ctx) // blocks; main is now the foreground
//
// A process-wide instance is available through Default and the
// package-level helpers.
package dispatcher
