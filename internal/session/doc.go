// Package session manages the dashboard's local user accounts and the
// current-user marker.
//
// Accounts are kept as a JSON list under the "smartHomeUsers" key and the
// logged-in username under "currentUser", both in a kvstore.Store. The
// scheme matches a single-browser demo: passwords are compared as plain
// text and there are no session tokens.
//
// Usage:
//
//	svc := session.NewService(store)
//	if _, err := svc.Register(ctx, session.RegisterRequest{...}); err != nil {
//	    fmt.Println(session.Message(err))
//	}
//	user, err := svc.Login(ctx, "alice", "secret")
package session
