// Package pomd provides a high-level library API for the pomd timer
// daemon.
//
// This package is the primary integration point for external consumers
// such as status-bar widgets and editor plugins. It wraps the internal
// wire protocol and reconnection machinery into a clean, stable public
// API. One-shot commands travel over a fresh connection with a bounded
// timeout; subscriptions maintain a resilient connection that survives
// daemon restarts.
//
// # Recommended Usage Pattern (status-bar widget)
//
//	c, err := pomd.New(pomd.Options{})
//	sub, err := c.Subscribe(pomd.SubscribeOptions{
//	    OnState: func(st pomd.State) { redraw(st) },
//	    OnEvent: func(ev pomd.Event) {
//	        if ev.Name == "session:complete" {
//	            beep()
//	        }
//	    },
//	    OnUnreachable: func() { showOffline() },
//	})
//	defer sub.Close()
//	// On click:
//	sub.Toggle()
//
// # Recommended Usage Pattern (script)
//
//	c, _ := pomd.New(pomd.Options{})
//	st, err := c.Start(ctx)
//	if err != nil {
//	    // errclass.Is(err, errclass.ErrUnreachable) etc.
//	}
//
// Callbacks run on the subscription's own goroutine, one at a time; they
// must not call Subscription.Close.
package pomd
