// Package academy is the progress and course-access engine behind a
// sports-education chat bot.
//
// Academy is a library. The Telegram transport in internal/bot is one
// caller; anything that can build an event.Event can drive it. It provides:
//
//   - An append-only points ledger of completion events
//   - Levels derived from point totals (Novice, Amateur, Expert, Master)
//   - A per-course Locked/Unlocked access state with a purchase bonus
//   - Pluggable hooks for audit trails and metrics
//
// # Quick Start
//
//	s := memory.New()
//	a := academy.New(s, academy.WithLogger(slog.Default()))
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Stop()
//
//	if _, err := a.Seed(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Points
//
// A user's total is never stored. It is the sum of the points of that
// user's completion events, so recording a completion is one insert and
// the total cannot drift from the history:
//
//	u, _ := a.RegisterUser(ctx, 42, "pele", "Edson Arantes")
//	out, err := a.Handle(ctx, event.TaskAnswered{UserID: u.ID, TaskID: 1, Answer: "11"})
//	// out.Progress.TotalPoints == 20, out.Progress.Level.Label == progress.Novice
//
// # Access
//
// Every course starts Locked. Unlock writes the purchase event under the
// key "unlock:<user>:<course>"; a second delivery of the same payment finds
// the key taken and changes nothing, so the bonus is granted once:
//
//	d, err := a.Unlock(ctx, u.ID, 1)
//	// d.Changed == true, d.BonusPoints == 100
//
// Demo lessons are open to everyone. Other lessons, and the tasks on them,
// require the course to be unlocked; Handle returns ErrCourseLocked
// otherwise.
//
// # Identifiers
//
// Users, courses, lessons and tasks use positive integers (the chat user id
// and the catalog's own ids). Completion events and invoices use TypeIDs:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41  // Completion event
//	inv_01h455vb4pex5vsknk084sn02q  // Invoice
package academy
